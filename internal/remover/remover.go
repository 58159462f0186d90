// Package remover deletes uninstall subkeys and reports a structured outcome
// for each attempt.
package remover

import (
	"errors"

	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/winreg"
)

// Remover deletes registry subtrees through their parent key.
type Remover struct {
	reg    winreg.Registry
	logger *zap.Logger
}

// New creates a Remover.
func New(reg winreg.Registry, logger *zap.Logger) *Remover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remover{reg: reg, logger: logger}
}

// Remove deletes the subtree at keyPath. It never returns an error; the
// returned Outcome says what happened.
func (r *Remover) Remove(keyPath string) Outcome {
	kp, err := winreg.ParseKeyPath(keyPath)
	if err != nil {
		r.logger.Warn("skipping unparseable key path", zap.String("key", keyPath), zap.Error(err))
		return Outcome{KeyPath: keyPath, Kind: ParseFailed, Err: err}
	}

	parent, err := r.reg.OpenKey(kp.Hive, kp.Parent, winreg.ReadWrite)
	if err != nil {
		o := Outcome{KeyPath: keyPath, Kind: classify(err), Err: err}
		r.logger.Warn("failed to open parent key",
			zap.String("key", keyPath),
			zap.Stringer("outcome", o.Kind),
			zap.Error(err))
		return o
	}
	defer parent.Close()

	if err := parent.DeleteSubKeyTree(kp.Leaf); err != nil {
		o := Outcome{KeyPath: keyPath, Kind: classify(err), Err: err}
		r.logger.Warn("failed to delete key",
			zap.String("key", keyPath),
			zap.Stringer("outcome", o.Kind),
			zap.Error(err))
		return o
	}

	r.logger.Info("deleted key", zap.String("key", keyPath))
	return Outcome{KeyPath: keyPath, Kind: Removed}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, winreg.ErrNotExist):
		return NotFound
	case errors.Is(err, winreg.ErrAccessDenied):
		return AccessDenied
	}
	return Failed
}
