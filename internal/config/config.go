package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Leaderboard backends
const (
	LeaderboardBackendMessage = "message"
	LeaderboardBackendSQLite  = "sqlite"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken         string
	DiscordApplicationID string

	// PaceMan feed
	FeedURL          string
	FeedKey          string
	FeedRetrySeconds int

	// Dispatch
	SplitMode                  string
	PublicCompletionCapMinutes int
	ChatRatePerSecond          int

	// Resync schedule (robfig/cron spec, empty disables)
	ResyncSchedule string

	// Leaderboard
	LeaderboardBackend string
	DatabasePath       string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:         os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),
		FeedURL:              getEnvOrDefault("PACEMAN_FEED_URL", "wss://paceman.gg/ws"),
		FeedKey:              os.Getenv("PACEMAN_FEED_KEY"),
		SplitMode:            strings.ToLower(getEnvOrDefault("SPLIT_MODE", "full")),
		ResyncSchedule:       lookupEnvOrDefault("RESYNC_SCHEDULE", "@every 30m"),
		LeaderboardBackend:   strings.ToLower(getEnvOrDefault("LEADERBOARD_BACKEND", LeaderboardBackendMessage)),
		DatabasePath:         getEnvOrDefault("DATABASE_PATH", "./data/bot.db"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.FeedRetrySeconds, err = getIntOrDefault("FEED_RETRY_SECONDS", 5); err != nil {
		return nil, err
	}
	if cfg.PublicCompletionCapMinutes, err = getIntOrDefault("PUBLIC_COMPLETION_CAP_MINUTES", 10); err != nil {
		return nil, err
	}
	if cfg.ChatRatePerSecond, err = getIntOrDefault("CHAT_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and enumerated values
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.FeedKey == "" {
		return fmt.Errorf("PACEMAN_FEED_KEY is required")
	}
	if c.FeedRetrySeconds <= 0 {
		return fmt.Errorf("FEED_RETRY_SECONDS must be positive")
	}
	if c.ChatRatePerSecond <= 0 {
		return fmt.Errorf("CHAT_RATE_PER_SECOND must be positive")
	}
	switch c.LeaderboardBackend {
	case LeaderboardBackendMessage, LeaderboardBackendSQLite:
	default:
		return fmt.Errorf("invalid LEADERBOARD_BACKEND: %q", c.LeaderboardBackend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnvOrDefault distinguishes an explicitly empty variable from an unset one.
func lookupEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
