package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/chat"
)

// Merger records a completion on a guild's leaderboard
type Merger interface {
	Merge(ctx context.Context, channelID, runnerName string, millis int64) error
}

// Surface is the part of the chat surface the leaderboard writes through
type Surface interface {
	SendMessage(ctx context.Context, channelID, content string) (chat.MessageRef, error)
	EditMessage(ctx context.Context, ref chat.MessageRef, content string) (chat.MessageRef, error)
	OldestMessage(ctx context.Context, channelID string) (chat.MessageRef, bool, error)
}

// MessageMerger keeps the leaderboard state in the leaderboard message itself
type MessageMerger struct {
	surface Surface
}

// NewMessageMerger creates a merger that parses and rewrites the first message of the channel
func NewMessageMerger(surface Surface) *MessageMerger {
	return &MessageMerger{surface: surface}
}

// Merge parses the existing leaderboard, merges the new time and rewrites it in full
func (m *MessageMerger) Merge(ctx context.Context, channelID, runnerName string, millis int64) error {
	existing, ok, err := m.surface.OldestMessage(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to read leaderboard: %w", err)
	}

	if !ok {
		content := Render([]Entry{{Name: runnerName, Millis: millis}})
		if _, err := m.surface.SendMessage(ctx, channelID, content); err != nil {
			return fmt.Errorf("failed to create leaderboard: %w", err)
		}
		slog.Info("Created leaderboard", "channel", channelID, "runner", runnerName)
		return nil
	}

	entries, err := Parse(existing.Content)
	if err != nil {
		return err
	}

	content := Render(Merge(entries, runnerName, millis))
	if content == existing.Content {
		return nil
	}
	if _, err := m.surface.EditMessage(ctx, existing, content); err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}

	slog.Info("Updated leaderboard", "channel", channelID, "runner", runnerName)
	return nil
}

// publish writes content into the channel's first message, creating it if needed. A
// first message that is not a leaderboard is never overwritten.
func publish(ctx context.Context, surface Surface, channelID, content string) error {
	existing, ok, err := surface.OldestMessage(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if !ok {
		_, err = surface.SendMessage(ctx, channelID, content)
		return err
	}
	if existing.Content == content {
		return nil
	}
	if _, err := Parse(existing.Content); err != nil {
		return err
	}
	_, err = surface.EditMessage(ctx, existing, content)
	return err
}
