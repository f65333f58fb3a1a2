package guild

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

// Managed roles start with this prefix; everything else is ignored
const rolePrefix = "*"

// ParseRoster parses the roster channel message: one `name:m/m/.../m[/finish]` line per
// runner, with fields ordered as mode.RosterSplits. Blank lines and code fences are skipped.
func ParseRoster(text string, mode *split.Mode) (map[string]*PlayerState, error) {
	players := make(map[string]*PlayerState)
	want := len(mode.RosterSplits)

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}

		name, values, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedRoster, n+1, line)
		}

		fields := strings.Split(values, "/")
		if len(fields) != want && len(fields) != want+1 {
			return nil, fmt.Errorf("%w: line %d: expected %d or %d fields, got %d",
				ErrMalformedRoster, n+1, want, want+1, len(fields))
		}

		p := NewPlayerState()
		for i, f := range fields {
			minutes, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil || minutes < 0 {
				return nil, fmt.Errorf("%w: line %d: field %d: %q", ErrMalformedRoster, n+1, i+1, f)
			}
			if i < want {
				p.SplitBests[mode.RosterSplits[i]] = minutes
			} else {
				p.FinishMinutes = minutes
			}
		}

		players[strings.ToLower(name)] = p
	}

	return players, nil
}

// ParseRole parses a managed role name. Forms:
//
//	*FS3:30          fixed time
//	*BPB             personal best
//	*steve:EE9:00    fixed time for one runner
//
// ok is false for roles that are not managed by the bot.
func ParseRole(id, name string) (RoleThreshold, bool, error) {
	if !strings.HasPrefix(name, rolePrefix) {
		return RoleThreshold{}, false, nil
	}
	body := strings.TrimPrefix(name, rolePrefix)
	r := RoleThreshold{RoleID: id, Name: name}

	if code, ok := strings.CutSuffix(body, "PB"); ok {
		kind, known := split.KindFromCode(code)
		if !known {
			return RoleThreshold{}, true, fmt.Errorf("%w: %q", ErrMalformedRole, name)
		}
		r.Split = kind
		r.PersonalBest = true
		return r, true, nil
	}

	colon := strings.LastIndex(body, ":")
	if colon < 0 {
		return RoleThreshold{}, true, fmt.Errorf("%w: %q", ErrMalformedRole, name)
	}
	secs, head := body[colon+1:], body[:colon]

	digits := len(head)
	for digits > 0 && unicode.IsDigit(rune(head[digits-1])) {
		digits--
	}
	prefix, mins := head[:digits], head[digits:]

	if runner, code, found := strings.Cut(prefix, ":"); found {
		r.RunnerKey = strings.ToLower(strings.TrimSpace(runner))
		prefix = code
		if r.RunnerKey == "" {
			return RoleThreshold{}, true, fmt.Errorf("%w: %q", ErrMalformedRole, name)
		}
	}

	kind, known := split.KindFromCode(prefix)
	if !known || mins == "" || len(secs) != 2 {
		return RoleThreshold{}, true, fmt.Errorf("%w: %q", ErrMalformedRole, name)
	}

	m, err := strconv.Atoi(mins)
	if err != nil {
		return RoleThreshold{}, true, fmt.Errorf("%w: %q", ErrMalformedRole, name)
	}
	s, err := strconv.Atoi(secs)
	if err != nil || s < 0 || s > 59 {
		return RoleThreshold{}, true, fmt.Errorf("%w: %q", ErrMalformedRole, name)
	}

	r.Split = kind
	r.Minutes = m
	r.Seconds = s
	return r, true, nil
}
