package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed index of past runs and the decisions they
// made. It is a convenience layer over the durable log and snapshot files,
// so callers treat failures here as warnings, not errors.
type Store struct {
	db *sql.DB
}

// New opens the history database at path, ":memory:" included for tests.
// The connection pool is pinned to one connection; SQLite allows a single
// writer and devup runs are sequential anyway.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// WAL lets `devup history` read while an upgrade in another terminal
	// writes; busy_timeout covers the handoff between them.
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateSchema creates the runs and run_events tables and their indexes.
// Safe to call on every start; the statements are IF NOT EXISTS.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
