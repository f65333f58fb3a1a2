package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			channel_id VARCHAR(20) NOT NULL,
			runner_key VARCHAR(50) NOT NULL,
			runner_name VARCHAR(50) NOT NULL,
			best_millis INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (channel_id, runner_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_channel ON leaderboard_entries(channel_id, best_millis)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Leaderboard operations

// UpsertBest records a completion, keeping the smaller of the stored and new times
func (r *Repository) UpsertBest(channelID, runnerName string, millis int64) error {
	_, err := r.db.Exec(
		`INSERT INTO leaderboard_entries (channel_id, runner_key, runner_name, best_millis, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(channel_id, runner_key) DO UPDATE SET
			runner_name = excluded.runner_name,
			best_millis = MIN(best_millis, excluded.best_millis),
			updated_at = excluded.updated_at`,
		channelID, strings.ToLower(runnerName), runnerName, millis, time.Now().UnixMilli(),
	)
	return err
}

// GetLeaderboard returns a channel's entries ordered by best time
func (r *Repository) GetLeaderboard(channelID string) ([]*LeaderboardEntry, error) {
	rows, err := r.db.Query(
		`SELECT channel_id, runner_key, runner_name, best_millis, updated_at
		 FROM leaderboard_entries WHERE channel_id = ? ORDER BY best_millis, runner_name`,
		channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		e := &LeaderboardEntry{}
		var updated int64
		if err := rows.Scan(&e.ChannelID, &e.RunnerKey, &e.RunnerName, &e.BestMillis, &updated); err != nil {
			return nil, err
		}
		e.UpdatedAt = time.UnixMilli(updated)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
