package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertSnapshot stores a snapshot row and returns the assigned ID.
func (s *Store) InsertSnapshot(reason string, keyCount int, path string) (int64, error) {
	query := `
		INSERT INTO snapshots (created_at, reason, key_count, snapshot_path)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		time.Now().Format(time.RFC3339),
		reason,
		keyCount,
		path,
	)
	if err != nil {
		return 0, wrapErr("failed to insert snapshot", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot ID: %w", err)
	}

	return id, nil
}

// GetSnapshot returns the snapshot with the given ID, or ErrSnapshotNotFound.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	query := `
		SELECT id, created_at, reason, key_count, snapshot_path
		FROM snapshots
		WHERE id = ?
	`

	snapshot, err := scanSnapshot(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("failed to get snapshot %d", id), err)
	}
	return snapshot, nil
}

// LatestSnapshot returns the most recently created snapshot.
func (s *Store) LatestSnapshot() (*Snapshot, error) {
	query := `
		SELECT id, created_at, reason, key_count, snapshot_path
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(s.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, wrapErr("failed to get latest snapshot", err)
	}
	return snapshot, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	query := `
		SELECT id, created_at, reason, key_count, snapshot_path
		FROM snapshots
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapErr("failed to list snapshots", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snapshot Snapshot
	var createdAt string
	var reason sql.NullString

	err := row.Scan(
		&snapshot.ID,
		&createdAt,
		&reason,
		&snapshot.KeyCount,
		&snapshot.SnapshotPath,
	)
	if err != nil {
		return nil, err
	}
	snapshot.Reason = reason.String

	snapshot.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for snapshot %d: %w", snapshot.ID, err)
	}
	return &snapshot, nil
}

// InsertSnapshotKey adds a backed-up key to a snapshot.
func (s *Store) InsertSnapshotKey(snapshotID int64, key *SnapshotKey) error {
	query := `
		INSERT INTO snapshot_keys (snapshot_id, key_path, display_name, backup_file, outcome)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		snapshotID,
		key.KeyPath,
		key.DisplayName,
		key.BackupFile,
		key.Outcome,
	)
	if err != nil {
		return wrapErr(fmt.Sprintf("failed to insert snapshot key %s", key.KeyPath), err)
	}

	return nil
}

// DeleteSnapshot removes a snapshot row together with its keys.
func (s *Store) DeleteSnapshot(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return wrapErr(fmt.Sprintf("failed to delete snapshot %d", id), err)
	}
	return nil
}

// SetKeyOutcome records the removal outcome of a backed-up key.
func (s *Store) SetKeyOutcome(snapshotID int64, keyPath, outcome string) error {
	result, err := s.db.Exec(
		`UPDATE snapshot_keys SET outcome = ? WHERE snapshot_id = ? AND key_path = ?`,
		outcome, snapshotID, keyPath,
	)
	if err != nil {
		return wrapErr(fmt.Sprintf("failed to update outcome for %s", keyPath), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("key %s is not part of snapshot %d", keyPath, snapshotID)
	}
	return nil
}

// GetSnapshotKeys returns the keys backed up in a snapshot, in insertion
// order.
func (s *Store) GetSnapshotKeys(snapshotID int64) ([]*SnapshotKey, error) {
	query := `
		SELECT snapshot_id, key_path, display_name, backup_file, outcome
		FROM snapshot_keys
		WHERE snapshot_id = ?
		ORDER BY rowid
	`

	rows, err := s.db.Query(query, snapshotID)
	if err != nil {
		return nil, wrapErr("failed to get snapshot keys", err)
	}
	defer rows.Close()

	var keys []*SnapshotKey
	for rows.Next() {
		var key SnapshotKey
		var displayName, outcome sql.NullString

		err := rows.Scan(
			&key.SnapshotID,
			&key.KeyPath,
			&displayName,
			&key.BackupFile,
			&outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot key row: %w", err)
		}
		key.DisplayName = displayName.String
		key.Outcome = outcome.String

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot keys: %w", err)
	}

	return keys, nil
}
