package models

import "time"

// MatchRecord is one completed game, persisted when a room settles.
// Players and Scores are aligned by index.
type MatchRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Players    []string  `json:"players"`
	Scores     []int64   `json:"scores"`
}
