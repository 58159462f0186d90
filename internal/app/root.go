package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/config"
	"github.com/blackwell-systems/regprune/internal/logging"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

var (
	cfgFile       string
	flagMatch     string
	flagBackupDir string
	flagDBPath    string
	flagLogLevel  string

	// newRegistry opens the registry the commands operate on.
	newRegistry = winreg.NewSystem

	// RootCmd is the root command for regprune
	RootCmd = &cobra.Command{
		Use:   "regprune",
		Short: "Remove leftover uninstall entries of launcher-installed games",
		Long: `regprune finds Windows uninstall entries whose uninstall command launches a
game client (Steam by default) and deletes their registry keys, so the games
disappear from "Apps & features" once the client no longer manages them.

Entries are read from the per-user and per-machine uninstall keys, for both
64-bit and 32-bit (WOW6432Node) programs. Nothing is deleted until you confirm.

Examples:
  # List matching entries without changing anything
  regprune scan

  # Remove them, keeping a .reg backup of every key
  regprune remove --backup

  # Put the keys back
  regprune undo latest`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "regprune: remove leftover game uninstall entries from the registry")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'regprune scan' to see what would be removed.")
			fmt.Fprintln(out, "Run 'regprune --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <user config dir>/regprune/regprune.yaml)")
	RootCmd.PersistentFlags().StringVar(&flagMatch, "match", "", `uninstall command fragment to match (default: \Steam\steam.exe)`)
	RootCmd.PersistentFlags().StringVar(&flagBackupDir, "backup-dir", "", "directory for .reg snapshots")
	RootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "snapshot database path")
	RootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(undoCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file and environment, applies flag overrides
// and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if flagMatch != "" {
		cfg.MatchFragment = flagMatch
	}
	if flagBackupDir != "" {
		cfg.BackupDir = flagBackupDir
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// setup loads the config and builds the logger, which writes to the
// command's error stream.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.LogLevel, cmd.ErrOrStderr()), nil
}
