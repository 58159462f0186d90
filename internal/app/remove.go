package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/config"
	"github.com/blackwell-systems/regprune/internal/output"
	"github.com/blackwell-systems/regprune/internal/remover"
	"github.com/blackwell-systems/regprune/internal/snapshots"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

var (
	removeFlagYes    bool
	removeFlagDryRun bool
	removeFlagBackup bool
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete matching uninstall entries from the registry",
	Long: `Delete the registry key of every uninstall entry whose uninstall command
contains the match fragment.

You are asked once before anything is deleted; answer "y" to continue. Each
entry is printed before its key is removed, and a summary of what was
removed, already gone or denied is printed at the end. Per-machine entries
need an elevated prompt; without one they are reported as access denied.

With --backup every key is first exported to a .reg file and recorded as a
snapshot that 'regprune undo' can restore.`,
	Example: `  # Preview what would be removed
  regprune remove --dry-run

  # Remove with a backup, without the prompt
  regprune remove --backup --yes`,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&removeFlagYes, "yes", false, "skip the confirmation prompt")
	removeCmd.Flags().BoolVar(&removeFlagDryRun, "dry-run", false, "print matching entries without removing them")
	removeCmd.Flags().BoolVar(&removeFlagBackup, "backup", false, "export each key to a .reg snapshot before removing it")
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return executeRemove(removeRun{
		in:     cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		reg:    newRegistry(),
		cfg:    cfg,
		logger: logger,
		yes:    removeFlagYes,
		dryRun: removeFlagDryRun,
		backup: removeFlagBackup,
	})
}

// removeRun carries everything one removal run needs.
type removeRun struct {
	in     io.Reader
	out    io.Writer
	reg    winreg.Registry
	cfg    *config.Config
	logger *zap.Logger

	yes    bool
	dryRun bool
	backup bool
}

// executeRemove runs the gate, the scan and one removal per entry, then
// prints the summary. Per-entry failures are reported, not returned.
func executeRemove(r removeRun) error {
	out := r.out

	if !r.yes && !r.dryRun {
		if !Confirm(r.in, out) {
			return nil
		}
	}

	entries := scanEntries(r.reg, r.cfg, r.logger, out)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching uninstall entries found.")
		return nil
	}

	if r.dryRun {
		for _, e := range entries {
			fmt.Fprint(out, output.RenderEntry(e))
		}
		fmt.Fprintf(out, "Dry-run mode: %d entries would be removed.\n", len(entries))
		return nil
	}

	var (
		mgr        *snapshots.Manager
		snapshotID int64
	)
	if r.backup {
		st, err := openStore(r.cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		mgr = snapshots.New(r.reg, st, r.cfg.BackupDir, r.logger)
		progress := output.NewProgress(out, len(entries), "Backing up keys")
		mgr.OnKeyBackedUp = func(string) { progress.Increment() }

		snapshotID, err = mgr.CreateSnapshot(entries, "before removal")
		progress.Finish()
		switch {
		case errors.Is(err, snapshots.ErrNothingBackedUp):
			fmt.Fprintln(out, "⚠  No key could be backed up; continuing without a snapshot.")
			mgr = nil
		case err != nil:
			return fmt.Errorf("failed to create snapshot: %w", err)
		default:
			fmt.Fprintf(out, "Snapshot created: ID %d\n\n", snapshotID)
		}
	}

	rm := remover.New(r.reg, r.logger)
	var summary remover.Summary
	for _, e := range entries {
		fmt.Fprint(out, output.RenderEntry(e))

		outcome := rm.Remove(e.KeyPath)
		summary.Add(outcome)

		if mgr != nil {
			if err := mgr.RecordOutcome(snapshotID, e.KeyPath, outcome.Kind.String()); err != nil {
				// Keys that were skipped during backup have no row.
				r.logger.Debug("outcome not recorded",
					zap.String("key", e.KeyPath),
					zap.Error(err))
			}
		}
	}

	fmt.Fprint(out, output.RenderSummary(&summary))

	if mgr != nil {
		fmt.Fprintf(out, "\nSnapshot: ID %d\n", snapshotID)
		fmt.Fprintf(out, "Undo with: regprune undo %d\n", snapshotID)
	}
	return nil
}
