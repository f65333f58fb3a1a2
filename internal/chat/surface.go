// Package chat defines the narrow chat-platform surface the dispatch core depends on.
package chat

import (
	"context"
	"errors"
)

// ErrTransport wraps every I/O failure against the chat platform
var ErrTransport = errors.New("chat transport failure")

// MessageRef identifies a sent message and the content it was last written with
type MessageRef struct {
	ChannelID string
	MessageID string
	Content   string
}

// Channel is a guild text channel
type Channel struct {
	ID   string
	Name string
}

// Role is a guild role
type Role struct {
	ID   string
	Name string
}

// Surface is the subset of the chat platform used by the bot. Channel and role
// identities are opaque; the bot never creates or deletes them.
type Surface interface {
	// SendMessage posts content to a channel
	SendMessage(ctx context.Context, channelID, content string) (MessageRef, error)

	// EditMessage replaces the content of a previously sent message
	EditMessage(ctx context.Context, ref MessageRef, content string) (MessageRef, error)

	// LatestMessage returns the newest message in a channel, if any
	LatestMessage(ctx context.Context, channelID string) (MessageRef, bool, error)

	// OldestMessage returns the first message in a channel, if any
	OldestMessage(ctx context.Context, channelID string) (MessageRef, bool, error)

	// GuildName returns the display name of a guild
	GuildName(ctx context.Context, guildID string) (string, error)

	// ListChannels returns the guild's channels
	ListChannels(ctx context.Context, guildID string) ([]Channel, error)

	// ListRoles returns the guild's roles
	ListRoles(ctx context.Context, guildID string) ([]Role, error)
}
