package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/regprune/internal/output"
	"github.com/blackwell-systems/regprune/internal/snapshots"
	"github.com/blackwell-systems/regprune/internal/store"
)

var (
	undoFlagList  bool
	undoFlagYes   bool
	undoFlagPrune bool
)

var undoCmd = &cobra.Command{
	Use:   "undo [snapshot-id | latest]",
	Short: "Restore registry keys from a snapshot",
	Long: `Restore uninstall entries removed by 'regprune remove --backup'.

Every key in the snapshot is re-created from its .reg backup, including
subkeys and values. Keys that still exist are merged with the backup.

Arguments:
  snapshot-id  The numeric ID of the snapshot to restore
  latest       Restore the most recent snapshot`,
	Example: `  regprune undo --list           # List all snapshots
  regprune undo latest           # Restore latest snapshot
  regprune undo 42 --yes         # Restore snapshot 42 without confirmation
  regprune undo --prune          # Delete backups older than snapshot_max_age_days`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&undoFlagList, "list", false, "list available snapshots")
	undoCmd.Flags().BoolVar(&undoFlagYes, "yes", false, "skip confirmation prompt")
	undoCmd.Flags().BoolVar(&undoFlagPrune, "prune", false, "delete snapshot directories older than snapshot_max_age_days")
}

func runUndo(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	mgr := snapshots.New(newRegistry(), st, cfg.BackupDir, logger)
	out := cmd.OutOrStdout()

	switch {
	case undoFlagList:
		return listSnapshots(mgr, out)
	case undoFlagPrune:
		return pruneSnapshots(mgr, out, cfg.SnapshotMaxAgeDays)
	}

	if len(args) == 0 {
		return fmt.Errorf("snapshot ID or 'latest' required\n\nUsage: regprune undo [snapshot-id | latest]\n\nUse 'regprune undo --list' to see available snapshots")
	}

	snapshot, err := resolveSnapshot(st, args[0])
	if err != nil {
		return err
	}
	return restoreSnapshot(mgr, st, snapshot, cmd.InOrStdin(), out, undoFlagYes)
}

// resolveSnapshot looks up a snapshot by numeric ID or "latest".
func resolveSnapshot(st *store.Store, arg string) (*store.Snapshot, error) {
	if strings.EqualFold(arg, "latest") {
		snap, err := st.LatestSnapshot()
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("no snapshots available\n\nSnapshots are created by 'regprune remove --backup'")
		}
		return snap, err
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot ID: %s (must be a number or 'latest')", arg)
	}
	snap, err := st.GetSnapshot(id)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("snapshot %d not found\n\nRun 'regprune undo --list' to see available snapshots", id)
	}
	return snap, err
}

func restoreSnapshot(mgr *snapshots.Manager, st *store.Store, snapshot *store.Snapshot, in io.Reader, out io.Writer, yes bool) error {
	if _, err := os.Stat(snapshot.SnapshotPath); err != nil {
		return fmt.Errorf("snapshot %d has been pruned: %s no longer exists", snapshot.ID, snapshot.SnapshotPath)
	}

	keys, err := st.GetSnapshotKeys(snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to get snapshot keys: %w", err)
	}

	fmt.Fprintf(out, "\nSnapshot Details:\n")
	fmt.Fprintf(out, "  ID: %d\n", snapshot.ID)
	fmt.Fprintf(out, "  Created: %s\n", snapshot.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Reason: %s\n", snapshot.Reason)
	fmt.Fprintf(out, "  Keys: %d\n\n", snapshot.KeyCount)
	if len(keys) > 0 {
		fmt.Fprintln(out, "Keys to restore:")
		fmt.Fprint(out, output.RenderSnapshotKeys(keys))
		fmt.Fprintln(out)
	}

	if !yes {
		question := fmt.Sprintf("Restore %d keys?", len(keys))
		if !askYesNo(bufio.NewReader(in), out, question) {
			fmt.Fprintln(out, "Restoration cancelled.")
			return nil
		}
	}

	spinner := output.NewSpinner(out, "Restoring keys from snapshot")
	spinner.Start()
	err = mgr.RestoreSnapshot(snapshot.ID)
	spinner.Stop()

	if err != nil {
		// Some keys may have been restored; report and carry on.
		fmt.Fprintf(out, "\n⚠  Restoration completed with errors: %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "\n✓ Restored %d keys from snapshot %d\n", len(keys), snapshot.ID)
	return nil
}

func listSnapshots(mgr *snapshots.Manager, out io.Writer) error {
	snaps, err := mgr.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots available.")
		fmt.Fprintln(out, "\nUse 'regprune remove --backup' to back up keys before removing them.")
		return nil
	}

	fmt.Fprintf(out, "\nAvailable snapshots:\n\n")
	fmt.Fprint(out, output.RenderSnapshotTable(snaps))
	fmt.Fprintf(out, "\nRestore with: regprune undo <id>\n")
	return nil
}

func pruneSnapshots(mgr *snapshots.Manager, out io.Writer, maxAgeDays int) error {
	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	deleted, err := mgr.CleanupOldSnapshots(maxAge)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	fmt.Fprintf(out, "Pruned %d snapshot %s older than %d days.\n", deleted, pluralDirs(deleted), maxAgeDays)
	return nil
}

func pluralDirs(n int) string {
	if n == 1 {
		return "directory"
	}
	return "directories"
}
