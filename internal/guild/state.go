package guild

import (
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/chat"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

// RoleThreshold is a notification role bound to a split
type RoleThreshold struct {
	RoleID string
	Name   string
	Split  split.Kind

	// Minutes and Seconds are unset for personal-best roles
	Minutes int
	Seconds int

	// PersonalBest roles fire when the runner beats their own recorded best
	PersonalBest bool

	// RunnerKey scopes a custom role to a single runner (lowercased)
	RunnerKey string
}

// Beats reports whether an elapsed time of minutes:seconds is under the threshold.
// Equal minutes need strictly fewer seconds.
func (r RoleThreshold) Beats(minutes, seconds int) bool {
	if r.Minutes != minutes {
		return r.Minutes > minutes
	}
	return r.Seconds > seconds
}

// PlayerState is the per-runner notification state within one guild
type PlayerState struct {
	// SplitBests holds the runner's best time per split in minutes
	SplitBests map[split.Kind]int

	// FinishMinutes is the completion threshold; 0 means unset
	FinishMinutes int

	// LastNotification is the most recent checkpoint message for the runner
	LastNotification *chat.MessageRef
}

// NewPlayerState creates an empty player state
func NewPlayerState() *PlayerState {
	return &PlayerState{SplitBests: make(map[split.Kind]int)}
}

func (p *PlayerState) clone() *PlayerState {
	c := &PlayerState{
		SplitBests:    make(map[split.Kind]int, len(p.SplitBests)),
		FinishMinutes: p.FinishMinutes,
	}
	for k, v := range p.SplitBests {
		c.SplitBests[k] = v
	}
	if p.LastNotification != nil {
		ref := *p.LastNotification
		c.LastNotification = &ref
	}
	return c
}

// State is everything the dispatcher needs to know about one guild
type State struct {
	GuildID            string
	Name               string
	ProgressChannel    string
	RosterChannel      string
	LeaderboardChannel string
	RosterGated        bool
	Players            map[string]*PlayerState
	Roles              []RoleThreshold
}

// Player looks up a runner by lowercased key. Unrostered guilds create the
// player on first sighting; roster-gated guilds never do.
func (s *State) Player(key string) (*PlayerState, bool) {
	if p, ok := s.Players[key]; ok {
		return p, true
	}
	if s.RosterGated {
		return nil, false
	}
	p := NewPlayerState()
	s.Players[key] = p
	return p, true
}

// Clone returns a deep copy safe to read outside the cache lock
func (s *State) Clone() *State {
	c := *s
	c.Players = make(map[string]*PlayerState, len(s.Players))
	for k, p := range s.Players {
		c.Players[k] = p.clone()
	}
	c.Roles = append([]RoleThreshold(nil), s.Roles...)
	return &c
}
