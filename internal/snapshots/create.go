package snapshots

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/scanner"
	"github.com/blackwell-systems/regprune/internal/store"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

const timestampLayout = "2006-01-02-150405"

// CreateSnapshot backs up the key of every entry into a new snapshot
// directory and records it in the store. Keys that are skipped (see
// ErrSkipped) are left out; any other backup failure aborts the snapshot.
func (m *Manager) CreateSnapshot(entries []*scanner.Entry, reason string) (int64, error) {
	if err := os.MkdirAll(m.snapshotDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	dir, err := m.newSnapshotDir(time.Now())
	if err != nil {
		return 0, err
	}

	var keys []*store.SnapshotKey
	for i, e := range entries {
		fileName := fmt.Sprintf("%02d-%s", i+1, sanitizeFileName(leafName(e.KeyPath)))
		path, err := m.backupTo(dir, e.KeyPath, fileName)
		if m.OnKeyBackedUp != nil {
			m.OnKeyBackedUp(e.KeyPath)
		}
		if errors.Is(err, ErrSkipped) {
			m.logger.Debug("skipping backup", zap.String("key", e.KeyPath), zap.Error(err))
			continue
		}
		if err != nil {
			os.RemoveAll(dir)
			return 0, fmt.Errorf("failed to back up %s: %w", e.KeyPath, err)
		}

		keys = append(keys, &store.SnapshotKey{
			KeyPath:     e.KeyPath,
			DisplayName: e.DisplayName,
			BackupFile:  filepath.Base(path),
		})
	}

	if len(keys) == 0 {
		os.RemoveAll(dir)
		return 0, ErrNothingBackedUp
	}

	snapshotID, err := m.store.InsertSnapshot(reason, len(keys), dir)
	if err != nil {
		os.RemoveAll(dir)
		return 0, fmt.Errorf("failed to insert snapshot into database: %w", err)
	}

	for _, k := range keys {
		if err := m.store.InsertSnapshotKey(snapshotID, k); err != nil {
			if derr := m.store.DeleteSnapshot(snapshotID); derr != nil {
				m.logger.Warn("failed to delete incomplete snapshot", zap.Int64("id", snapshotID), zap.Error(derr))
			}
			os.RemoveAll(dir)
			return 0, fmt.Errorf("failed to insert snapshot key %s: %w", k.KeyPath, err)
		}
	}

	m.logger.Info("created snapshot",
		zap.Int64("id", snapshotID),
		zap.String("dir", dir),
		zap.Int("keys", len(keys)))
	return snapshotID, nil
}

// newSnapshotDir creates <snapshot dir>/<timestamp>, adding a numeric suffix
// when a snapshot was already taken within the same second.
func (m *Manager) newSnapshotDir(now time.Time) (string, error) {
	base := filepath.Join(m.snapshotDir, now.Format(timestampLayout))
	dir := base
	for i := 2; ; i++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		dir = fmt.Sprintf("%s-%d", base, i)
	}
}

func leafName(keyPath string) string {
	if kp, err := winreg.ParseKeyPath(keyPath); err == nil {
		return kp.Leaf
	}
	return keyPath
}

// RecordOutcome stores the removal outcome of a key in a snapshot.
func (m *Manager) RecordOutcome(snapshotID int64, keyPath, outcome string) error {
	return m.store.SetKeyOutcome(snapshotID, keyPath, outcome)
}

// ListSnapshots returns the catalogue, newest first.
func (m *Manager) ListSnapshots() ([]*store.Snapshot, error) {
	snapshots, err := m.store.ListSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// CleanupOldSnapshots deletes the directories of snapshots older than maxAge
// and returns how many were deleted. Database rows are kept as history.
func (m *Manager) CleanupOldSnapshots(maxAge time.Duration) (int, error) {
	snapshots, err := m.store.ListSnapshots()
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0

	for _, snapshot := range snapshots {
		if !snapshot.CreatedAt.Before(cutoff) {
			continue
		}
		if _, err := os.Stat(snapshot.SnapshotPath); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(snapshot.SnapshotPath); err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot directory %s: %w", snapshot.SnapshotPath, err)
		}
		m.logger.Debug("deleted old snapshot", zap.Int64("id", snapshot.ID), zap.String("dir", snapshot.SnapshotPath))
		deleted++
	}

	return deleted, nil
}
