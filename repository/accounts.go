package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/setarena/setarena-backend/models"
)

// FindAccount returns the stored account or ErrNoAccount.
func (r *Repository) FindAccount(username string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		"SELECT id, username, password, rating FROM users WHERE username = $1",
		username,
	).Scan(&user.ID, &user.Username, &user.Password, &user.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, fmt.Errorf("find account %q: %w", username, err)
	}
	return &user, nil
}

// CreateAccount inserts a new account at the default rating. The password
// must already be bcrypt-hashed by the caller.
func (r *Repository) CreateAccount(username, passwordHash string) error {
	_, err := r.db.Exec(
		"INSERT INTO users (username, password, rating) VALUES ($1, $2, $3)",
		username, passwordHash, models.DefaultRating,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("create account %q: %w", username, err)
	}
	return nil
}

// UpdateRating persists a settlement or forfeit adjustment.
func (r *Repository) UpdateRating(username string, rating int) error {
	res, err := r.db.Exec("UPDATE users SET rating = $1 WHERE username = $2", rating, username)
	if err != nil {
		return fmt.Errorf("update rating for %q: %w", username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoAccount
	}
	return nil
}

// ListTop returns the highest-rated accounts for the leaderboard.
func (r *Repository) ListTop(limit int) ([]models.User, error) {
	rows, err := r.db.Query(
		"SELECT id, username, rating FROM users ORDER BY rating DESC, username ASC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list top accounts: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Rating); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return users, nil
}
