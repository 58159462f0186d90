package config

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/regprune/internal/winreg"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	if strings.TrimSpace(c.MatchFragment) == "" {
		errs = append(errs, fmt.Errorf("match_fragment must not be empty"))
	}

	if len(c.UninstallPaths) == 0 {
		errs = append(errs, fmt.Errorf("uninstall_paths must list at least one path"))
	}
	for i, p := range c.UninstallPaths {
		if strings.Trim(p, `\ `) == "" {
			errs = append(errs, fmt.Errorf("uninstall_paths[%d] is empty", i))
		}
	}

	if len(c.Hives) == 0 {
		errs = append(errs, fmt.Errorf("hives must list at least one hive"))
	}
	for _, token := range c.Hives {
		if _, ok := winreg.ParseHive(token); !ok {
			errs = append(errs, fmt.Errorf("unknown hive %q (use HKCU, HKLM, HKCR, HKU or HKCC)", token))
		}
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.SnapshotMaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("snapshot_max_age_days must not be negative, got %d", c.SnapshotMaxAgeDays))
	}

	return errs
}
