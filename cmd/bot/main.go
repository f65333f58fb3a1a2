package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/bot"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	slog.Info("Starting PacemanBot",
		"feed", cfg.FeedURL,
		"splitMode", cfg.SplitMode,
		"leaderboard", cfg.LeaderboardBackend,
		"resync", cfg.ResyncSchedule,
	)

	// Cancelled on SIGINT/SIGTERM; this stops the feed reconnect loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := bot.New(cfg)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	if err := b.Start(ctx); err != nil {
		slog.Error("Failed to start bot", "error", err)
		b.Stop()
		os.Exit(1)
	}

	slog.Info("Watching the PaceMan feed. Press Ctrl+C to stop.")

	<-ctx.Done()
	stop()

	slog.Info("Shutting down, letting the current dispatch pass finish")

	if err := b.Stop(); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Bot stopped")
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}
