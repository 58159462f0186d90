package snapshots

import (
	"errors"

	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/store"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

var (
	// ErrSkipped is returned by Backup when the key cannot be backed up and
	// the caller should carry on without it: the path does not parse, names
	// an unknown hive, or the key no longer exists.
	ErrSkipped = errors.New("backup skipped")
	// ErrNothingBackedUp is returned by CreateSnapshot when every key was
	// skipped.
	ErrNothingBackedUp = errors.New("no keys could be backed up")
)

// Manager writes .reg backups of registry keys, groups them into snapshots
// recorded in the store, and restores them.
type Manager struct {
	reg         winreg.Registry
	store       *store.Store
	snapshotDir string
	logger      *zap.Logger

	// OnKeyBackedUp, when set, is called after each key in a snapshot has
	// been handled, whether it was written or skipped.
	OnKeyBackedUp func(keyPath string)
}

// New returns a Manager writing backups below snapshotDir.
func New(reg winreg.Registry, st *store.Store, snapshotDir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		reg:         reg,
		store:       st,
		snapshotDir: snapshotDir,
		logger:      logger,
	}
}

// Dir returns the directory snapshots are written below.
func (m *Manager) Dir() string {
	return m.snapshotDir
}
