package guild

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/chat"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

// Channel names the bot looks for in every guild
const (
	ProgressChannelName    = "pacemanbot"
	RosterChannelName      = "pacemanbot-runner-names"
	LeaderboardChannelName = "pacemanbot-runner-leaderboard"
)

// IsManagedChannel reports whether a channel name affects guild configuration
func IsManagedChannel(name string) bool {
	return strings.HasPrefix(name, ProgressChannelName)
}

// IsManagedRole reports whether a role name is parsed into thresholds
func IsManagedRole(name string) bool {
	return strings.HasPrefix(name, rolePrefix)
}

// Source is the part of the chat surface a rebuild reads from
type Source interface {
	GuildName(ctx context.Context, guildID string) (string, error)
	ListChannels(ctx context.Context, guildID string) ([]chat.Channel, error)
	ListRoles(ctx context.Context, guildID string) ([]chat.Role, error)
	LatestMessage(ctx context.Context, channelID string) (chat.MessageRef, bool, error)
}

// Builder constructs fresh guild state from the chat platform
type Builder struct {
	source Source
	mode   *split.Mode
}

// NewBuilder creates a builder reading from source using the given split mode
func NewBuilder(source Source, mode *split.Mode) *Builder {
	return &Builder{source: source, mode: mode}
}

// Build reads channels, roles and the roster message for a guild. Any failure returns
// an error and no state.
func (b *Builder) Build(ctx context.Context, guildID string) (*State, error) {
	name, err := b.source.GuildName(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild name: %w", err)
	}

	channels, err := b.source.ListChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	state := &State{
		GuildID: guildID,
		Name:    name,
		Players: make(map[string]*PlayerState),
	}

	for _, c := range channels {
		switch c.Name {
		case ProgressChannelName:
			state.ProgressChannel = c.ID
		case RosterChannelName:
			state.RosterChannel = c.ID
		case LeaderboardChannelName:
			state.LeaderboardChannel = c.ID
		}
	}

	if state.ProgressChannel == "" {
		return nil, &LookupError{GuildID: guildID, What: "#" + ProgressChannelName + " channel"}
	}

	if state.RosterChannel != "" {
		state.RosterGated = true

		msg, ok, err := b.source.LatestMessage(ctx, state.RosterChannel)
		if err != nil {
			return nil, fmt.Errorf("failed to read roster: %w", err)
		}
		if !ok {
			return nil, &LookupError{GuildID: guildID, What: "roster message"}
		}

		players, err := ParseRoster(msg.Content, b.mode)
		if err != nil {
			return nil, err
		}
		state.Players = players
	}

	roles, err := b.source.ListRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	for _, role := range roles {
		threshold, managed, err := ParseRole(role.ID, role.Name)
		if err != nil {
			return nil, err
		}
		if !managed || !b.mode.Supports(threshold.Split) {
			continue
		}
		state.Roles = append(state.Roles, threshold)
	}

	// Stable order keeps role mentions deterministic across rebuilds
	sort.SliceStable(state.Roles, func(i, j int) bool {
		a, c := state.Roles[i], state.Roles[j]
		if a.Split != c.Split {
			return a.Split < c.Split
		}
		if a.Minutes != c.Minutes {
			return a.Minutes < c.Minutes
		}
		if a.Seconds != c.Seconds {
			return a.Seconds < c.Seconds
		}
		return a.Name < c.Name
	})

	return state, nil
}
