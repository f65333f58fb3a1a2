package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertBestKeepsSmallerTime(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertBest("c1", "Steve", 540000))
	require.NoError(t, repo.UpsertBest("c1", "steve", 600000))
	require.NoError(t, repo.UpsertBest("c1", "Alex", 480000))
	require.NoError(t, repo.UpsertBest("c2", "Steve", 300000))

	entries, err := repo.GetLeaderboard("c1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Alex", entries[0].RunnerName)
	assert.Equal(t, int64(480000), entries[0].BestMillis)
	assert.Equal(t, "steve", entries[1].RunnerKey)
	assert.Equal(t, int64(540000), entries[1].BestMillis)
	assert.False(t, entries[1].UpdatedAt.IsZero())
}

func TestUpsertBestImproves(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertBest("c1", "Steve", 540000))
	require.NoError(t, repo.UpsertBest("c1", "Steve", 500000))

	entries, err := repo.GetLeaderboard("c1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(500000), entries[0].BestMillis)
}
