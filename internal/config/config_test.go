package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("PACEMAN_FEED_KEY", "key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://paceman.gg/ws", cfg.FeedURL)
	assert.Equal(t, 5, cfg.FeedRetrySeconds)
	assert.Equal(t, 10, cfg.PublicCompletionCapMinutes)
	assert.Equal(t, "full", cfg.SplitMode)
	assert.Equal(t, "@every 30m", cfg.ResyncSchedule)
	assert.Equal(t, LeaderboardBackendMessage, cfg.LeaderboardBackend)
}

func TestLoadEmptyResyncDisables(t *testing.T) {
	setRequired(t)
	t.Setenv("RESYNC_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.ResyncSchedule)
}

func TestLoadMissingFeedKey(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("PACEMAN_FEED_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadInvalidInteger(t *testing.T) {
	setRequired(t)
	t.Setenv("FEED_RETRY_SECONDS", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "FEED_RETRY_SECONDS")
}

func TestLoadInvalidBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("LEADERBOARD_BACKEND", "redis")

	_, err := Load()
	require.ErrorContains(t, err, "LEADERBOARD_BACKEND")
}
