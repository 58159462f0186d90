package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotInitialized is returned when the snapshot tables do not exist yet.
	ErrNotInitialized = errors.New("snapshot database is not initialized")
	// ErrSnapshotNotFound is returned when no snapshot has the requested ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// Store is the SQLite catalogue of snapshots and the keys they back up.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath. Use ":memory:" in tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection: SQLite has one writer, and each :memory:
	// connection is its own database.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the tables and indexes if they are missing and stamps
// the schema version.
func (s *Store) CreateSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the version stamped by CreateSchema, or 0 for a
// database that has never been initialized.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// wrapErr maps a missing-table failure to ErrNotInitialized.
func wrapErr(op string, err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
