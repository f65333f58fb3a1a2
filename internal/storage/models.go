package storage

import "time"

// LeaderboardEntry is a runner's best completion time on one leaderboard channel
type LeaderboardEntry struct {
	ChannelID  string
	RunnerKey  string // lowercased runner name
	RunnerName string
	BestMillis int64
	UpdatedAt  time.Time
}
