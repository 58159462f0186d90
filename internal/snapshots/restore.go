package snapshots

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/regfile"
	"github.com/blackwell-systems/regprune/internal/store"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

// RestoreSnapshot re-creates every key backed up in the snapshot, with its
// values. Keys that fail are reported together after all others have been
// tried.
func (m *Manager) RestoreSnapshot(id int64) error {
	snapshot, err := m.store.GetSnapshot(id)
	if err != nil {
		return fmt.Errorf("failed to get snapshot: %w", err)
	}

	keys, err := m.store.GetSnapshotKeys(id)
	if err != nil {
		return fmt.Errorf("failed to get snapshot keys: %w", err)
	}

	var successCount int
	var failures []string

	for _, key := range keys {
		if err := m.restoreKey(snapshot, key); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", key.KeyPath, err))
			m.logger.Warn("failed to restore key", zap.String("key", key.KeyPath), zap.Error(err))
			continue
		}
		successCount++
		m.logger.Info("restored key", zap.String("key", key.KeyPath))
	}

	if len(failures) > 0 {
		return fmt.Errorf("restored %d/%d keys, %d failures: %v",
			successCount, len(keys), len(failures), failures)
	}

	return nil
}

func (m *Manager) restoreKey(snapshot *store.Snapshot, key *store.SnapshotKey) error {
	path := filepath.Join(snapshot.SnapshotPath, key.BackupFile)
	blocks, err := loadBackupFile(path)
	if err != nil {
		return err
	}
	return Import(m.reg, blocks)
}

// Import writes decoded .reg blocks into the registry. Deletion blocks are
// ignored.
func Import(reg winreg.Registry, blocks []*regfile.KeyBlock) error {
	for _, b := range blocks {
		if b.Delete {
			continue
		}
		if err := importBlock(reg, b); err != nil {
			return err
		}
	}
	return nil
}

func importBlock(reg winreg.Registry, b *regfile.KeyBlock) error {
	h, rest, err := winreg.SplitHive(b.Path)
	if err != nil {
		return err
	}

	k, err := reg.CreateKey(h, rest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", b.Path, err)
	}
	defer k.Close()

	for _, v := range b.Values {
		if err := k.SetValue(v); err != nil {
			return fmt.Errorf("failed to set %q on %s: %w", v.Name, b.Path, err)
		}
	}
	return nil
}

// loadBackupFile reads and decodes a .reg backup.
func loadBackupFile(path string) ([]*regfile.KeyBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	defer f.Close()

	blocks, err := regfile.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backup file %s: %w", filepath.Base(path), err)
	}
	return blocks, nil
}
