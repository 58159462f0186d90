// Package config loads regprune settings from defaults, an optional YAML
// file and REGPRUNE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/blackwell-systems/regprune/internal/scanner"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

const (
	// DefaultMatchFragment identifies Steam's uninstaller.
	DefaultMatchFragment = `\Steam\steam.exe`
	// DefaultLogLevel keeps the console quiet unless something goes wrong.
	DefaultLogLevel = "warn"
	// DefaultSnapshotMaxAgeDays is how long `undo --prune` keeps backups.
	DefaultSnapshotMaxAgeDays = 90

	envPrefix  = "REGPRUNE"
	configName = "regprune"
)

// DefaultUninstallPaths are the native and WOW6432Node uninstall roots, in
// scan order.
var DefaultUninstallPaths = []string{
	`Software\Microsoft\Windows\CurrentVersion\Uninstall`,
	`Software\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// DefaultHives are scanned for each uninstall path, in this order.
var DefaultHives = []string{winreg.HKEYCurrentUserShort, winreg.HKEYLocalMachineShort}

type Config struct {
	MatchFragment      string   `mapstructure:"match_fragment"`
	UninstallPaths     []string `mapstructure:"uninstall_paths"`
	Hives              []string `mapstructure:"hives"`
	BackupDir          string   `mapstructure:"backup_dir"`
	DBPath             string   `mapstructure:"db_path"`
	LogLevel           string   `mapstructure:"log_level"`
	SnapshotMaxAgeDays int      `mapstructure:"snapshot_max_age_days"`
}

// Dir returns the regprune config directory: regprune below the user config
// directory (%AppData% on Windows, $XDG_CONFIG_HOME or ~/.config elsewhere).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "regprune"), nil
}

func Default() *Config {
	dir, err := Dir()
	if err != nil {
		dir = ".regprune"
	}
	return &Config{
		MatchFragment:      DefaultMatchFragment,
		UninstallPaths:     append([]string(nil), DefaultUninstallPaths...),
		Hives:              append([]string(nil), DefaultHives...),
		BackupDir:          filepath.Join(dir, "snapshots"),
		DBPath:             filepath.Join(dir, "regprune.db"),
		LogLevel:           DefaultLogLevel,
		SnapshotMaxAgeDays: DefaultSnapshotMaxAgeDays,
	}
}

// Load reads cfgFile, or regprune.yaml from Dir() and the working directory
// when cfgFile is empty. A missing default file is not an error; a missing
// explicit file is.
func Load(cfgFile string) (*Config, error) {
	defaults := Default()
	v := viper.New()

	v.SetDefault("match_fragment", defaults.MatchFragment)
	v.SetDefault("uninstall_paths", defaults.UninstallPaths)
	v.SetDefault("hives", defaults.Hives)
	v.SetDefault("backup_dir", defaults.BackupDir)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("snapshot_max_age_days", defaults.SnapshotMaxAgeDays)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// A zero value, so a configured list replaces the default list
	// rather than overwriting its leading elements.
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Sources expands UninstallPaths × Hives path-major: every hive for the
// first path, then every hive for the next. Unknown hive tokens are skipped;
// Validate reports them.
func (c *Config) Sources() []scanner.Source {
	var sources []scanner.Source
	for _, p := range c.UninstallPaths {
		for _, token := range c.Hives {
			h, ok := winreg.ParseHive(token)
			if !ok {
				continue
			}
			sources = append(sources, scanner.Source{Hive: h, Path: p})
		}
	}
	return sources
}
