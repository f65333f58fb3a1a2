package guild

import (
	"errors"
	"fmt"
)

var (
	// ErrLookup marks a missing channel, role, or configuration message
	ErrLookup = errors.New("guild lookup failed")

	// ErrMalformedRoster marks a roster line that does not parse
	ErrMalformedRoster = errors.New("malformed roster line")

	// ErrMalformedRole marks a managed role whose name does not parse
	ErrMalformedRole = errors.New("malformed role name")

	// ErrSuperseded marks a rebuild overtaken by a newer rebuild or a removal
	ErrSuperseded = errors.New("guild rebuild superseded")
)

// LookupError describes what could not be found in a guild
type LookupError struct {
	GuildID string
	What    string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("guild %s: missing %s", e.GuildID, e.What)
}

// Unwrap lets errors.Is match ErrLookup
func (e *LookupError) Unwrap() error {
	return ErrLookup
}
