// Package repository is the persistence layer: account lookup, rating
// updates and match history in PostgreSQL.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/setarena/setarena-backend/config"
)

var (
	ErrNoAccount     = errors.New("account does not exist")
	ErrAccountExists = errors.New("account already exists")
)

type Repository struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func ConnectToPostgreSQL(cfg *config.Config, log *zap.SugaredLogger) (*Repository, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("successfully connected to PostgreSQL")
	return &Repository{db: db, log: log}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
