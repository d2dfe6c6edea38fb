package repository

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/setarena/setarena-backend/models"
)

// RecordMatch stores one completed game with its participants and final
// scores, aligned by array index.
func (r *Repository) RecordMatch(rec models.MatchRecord) error {
	_, err := r.db.Exec(
		"INSERT INTO matches (id, started_at, finished_at, players, scores) VALUES ($1, $2, $3, $4, $5)",
		rec.ID, rec.StartedAt, rec.FinishedAt, pq.Array(rec.Players), pq.Array(rec.Scores),
	)
	if err != nil {
		return fmt.Errorf("record match %s: %w", rec.ID, err)
	}
	return nil
}

// MatchesFor returns the match history a user took part in, newest first.
func (r *Repository) MatchesFor(username string) ([]models.MatchRecord, error) {
	rows, err := r.db.Query(
		"SELECT id, started_at, finished_at, players, scores FROM matches WHERE $1 = ANY(players) ORDER BY finished_at DESC",
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch matches for %q: %w", username, err)
	}
	defer rows.Close()

	var matches []models.MatchRecord
	for rows.Next() {
		var rec models.MatchRecord
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt,
			pq.Array(&rec.Players), pq.Array(&rec.Scores)); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return matches, nil
}
