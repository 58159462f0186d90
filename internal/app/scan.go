package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/regprune/internal/output"
)

var (
	scanFlagLong bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "List uninstall entries that would be removed",
		Long: `Scan the uninstall keys of the current user and the local machine and list
every entry whose uninstall command contains the match fragment.

Entries found under more than one key (for example both the native and the
WOW6432Node view) are listed once. The registry is never modified.`,
		Example: `  # Table of matching entries
  regprune scan

  # Full details, as printed by 'remove'
  regprune scan --long

  # Match a different launcher
  regprune scan --match '\Epic Games\Launcher\'`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanFlagLong, "long", false, "print every field of each entry")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	entries := scanEntries(newRegistry(), cfg, logger, out)

	if !scanFlagLong || len(entries) == 0 {
		fmt.Fprint(out, output.RenderEntryTable(entries))
		return nil
	}

	for _, e := range entries {
		fmt.Fprint(out, output.RenderEntry(e))
	}
	fmt.Fprintf(out, "%d matching entries\n", len(entries))
	return nil
}
