// Package output renders regprune's console output: uninstall entry blocks
// and tables, the removal summary, the snapshot list, and the progress
// indicators used while scanning and backing up.
//
// Rendering functions return strings; callers decide where they go.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/regprune/internal/remover"
	"github.com/blackwell-systems/regprune/internal/scanner"
	"github.com/blackwell-systems/regprune/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderEntry renders the block printed before an entry is removed: one
// labelled line per field followed by a blank line.
func RenderEntry(e *scanner.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DisplayName: %s\n", e.DisplayName)
	fmt.Fprintf(&sb, "Vendor: %s\n", e.Vendor)
	fmt.Fprintf(&sb, "InstallLocation: %s\n", e.InstallLocation)
	fmt.Fprintf(&sb, "UninstallString: %s\n", e.UninstallCommand)
	fmt.Fprintf(&sb, "KeyPath: %s\n", e.KeyPath)
	sb.WriteString("\n")
	return sb.String()
}

// RenderEntryTable renders matched entries in the order given.
func RenderEntryTable(entries []*scanner.Entry) string {
	if len(entries) == 0 {
		return "No matching uninstall entries found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-32s %-20s %s\n", "Name", "Vendor", "Key"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = "(no name)"
		}
		sb.WriteString(fmt.Sprintf("%-32s %-20s %s\n",
			truncate(name, 32),
			truncate(e.Vendor, 20),
			e.KeyPath))
	}

	sb.WriteString(fmt.Sprintf("\n%d matching %s\n", len(entries), plural(len(entries), "entry", "entries")))
	return sb.String()
}

// RenderSummary renders the per-kind counts of a removal run followed by
// one line per key that was not removed.
func RenderSummary(s *remover.Summary) string {
	if s.Total() == 0 {
		return "Nothing to remove.\n"
	}

	var sb strings.Builder
	removed := s.Count(remover.Removed)
	headline := fmt.Sprintf("Removed %d of %d %s", removed, s.Total(), plural(s.Total(), "key", "keys"))
	if s.OK() {
		sb.WriteString(colorize(colorGreen, "✓ "+headline))
	} else {
		sb.WriteString(colorize(colorYellow, "⚠ "+headline))
	}
	sb.WriteString("\n")

	for _, k := range []remover.Kind{remover.NotFound, remover.AccessDenied, remover.ParseFailed, remover.Failed} {
		if n := s.Count(k); n > 0 {
			sb.WriteString(fmt.Sprintf("  %-17s %d\n", k.String()+":", n))
		}
	}

	failures := s.Failures()
	if len(failures) > 0 {
		sb.WriteString("\n")
		for _, o := range failures {
			sb.WriteString(colorize(colorRed, "  ✗ "))
			sb.WriteString(o.String())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// RenderSnapshotTable renders snapshots in the order given (the store lists
// newest first). Snapshots whose directory has been pruned are marked.
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-17s %-6s %-10s %s\n",
		"ID", "Created", "Keys", "Status", "Reason"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, snap := range snapshots {
		status := "available"
		if _, err := os.Stat(snap.SnapshotPath); err != nil {
			status = "pruned"
		}
		// Pad before colouring so escape codes do not break alignment.
		statusCol := fmt.Sprintf("%-10s", status)
		if status == "pruned" {
			statusCol = colorize(colorGray, statusCol)
		}

		sb.WriteString(fmt.Sprintf("%-5d %-17s %-6d %s %s\n",
			snap.ID,
			formatRelativeTime(snap.CreatedAt),
			snap.KeyCount,
			statusCol,
			truncate(snap.Reason, 40)))
	}

	return sb.String()
}

// RenderSnapshotKeys lists the keys held by a snapshot with the outcome of
// their removal, if one was recorded.
func RenderSnapshotKeys(keys []*store.SnapshotKey) string {
	var sb strings.Builder
	for _, k := range keys {
		name := k.DisplayName
		if name == "" {
			name = k.KeyPath
		}
		outcome := k.Outcome
		if outcome == "" {
			outcome = "not attempted"
		}
		sb.WriteString(fmt.Sprintf("  %-32s %s\n", truncate(name, 32), outcome))
	}
	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return ago(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return ago(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return ago(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return ago(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return ago(int(diff.Hours()/24/30), "month")
	default:
		return ago(int(diff.Hours()/24/365), "year")
	}
}

func ago(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
