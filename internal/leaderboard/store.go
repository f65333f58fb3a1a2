package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/storage"
)

// Store persists leaderboard entries outside the chat platform
type Store interface {
	UpsertBest(channelID, runnerName string, millis int64) error
	GetLeaderboard(channelID string) ([]*storage.LeaderboardEntry, error)
}

// StoreMerger keeps entries in a Store and re-renders the leaderboard message from it
type StoreMerger struct {
	store   Store
	surface Surface

	mu     sync.Mutex
	seeded map[string]bool
}

// NewStoreMerger creates a store-backed merger
func NewStoreMerger(store Store, surface Surface) *StoreMerger {
	return &StoreMerger{
		store:   store,
		surface: surface,
		seeded:  make(map[string]bool),
	}
}

// Merge upserts the runner's time and rewrites the leaderboard message
func (m *StoreMerger) Merge(ctx context.Context, channelID, runnerName string, millis int64) error {
	if err := m.seed(ctx, channelID); err != nil {
		return err
	}

	if err := m.store.UpsertBest(channelID, runnerName, millis); err != nil {
		return fmt.Errorf("failed to store leaderboard entry: %w", err)
	}

	rows, err := m.store.GetLeaderboard(channelID)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{Name: r.RunnerName, Millis: r.BestMillis})
	}

	if err := publish(ctx, m.surface, channelID, Render(entries)); err != nil {
		return fmt.Errorf("failed to publish leaderboard: %w", err)
	}
	return nil
}

// seed imports an existing rendered leaderboard the first time a channel is seen with an
// empty store, so switching backends does not lose entries.
func (m *StoreMerger) seed(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seeded[channelID] {
		return nil
	}

	rows, err := m.store.GetLeaderboard(channelID)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if len(rows) > 0 {
		m.seeded[channelID] = true
		return nil
	}

	existing, ok, err := m.surface.OldestMessage(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if ok {
		entries, err := Parse(existing.Content)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := m.store.UpsertBest(channelID, e.Name, e.Millis); err != nil {
				return fmt.Errorf("failed to seed leaderboard: %w", err)
			}
		}
		slog.Info("Seeded leaderboard store", "channel", channelID, "entries", len(entries))
	}

	m.seeded[channelID] = true
	return nil
}
