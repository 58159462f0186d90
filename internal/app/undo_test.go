package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUndoCommand(t *testing.T) {
	if undoCmd.Use != "undo [snapshot-id | latest]" {
		t.Errorf("undoCmd.Use = %q", undoCmd.Use)
	}
	for _, name := range []string{"list", "yes", "prune"} {
		flag := undoCmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("flag %q not found", name)
			continue
		}
		if flag.DefValue != "false" {
			t.Errorf("flag %q default = %q, want %q", name, flag.DefValue, "false")
		}
	}
}

func TestUndoRequiresArgument(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "undo")
	if err == nil || !strings.Contains(err.Error(), "snapshot ID or 'latest' required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUndoErrors(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"latest", "no snapshots available"},
		{"abc", "invalid snapshot ID"},
		{"7", "snapshot 7 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run("", "undo", tt.arg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("undo %s error = %v, want %q", tt.arg, err, tt.want)
			}
		})
	}
}

func TestUndoListEmpty(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("", "undo", "--list")
	if err != nil {
		t.Fatalf("undo --list failed: %v", err)
	}
	if !strings.Contains(out, "No snapshots available.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestUndoDeclined(t *testing.T) {
	env := newTestEnv(t)
	keyPath := env.addSteamApp(uninstallCU, "Steam App 620", "Portal 2")
	if _, err := env.run("", "remove", "--yes", "--backup"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	out, err := env.run("\n", "undo", "1")
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !strings.Contains(out, "Restoration cancelled.") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if env.reg.Exists(keyPath) {
		t.Error("key restored despite declining")
	}
}

func TestUndoPrune(t *testing.T) {
	env := newTestEnv(t)
	env.addSteamApp(uninstallCU, "Steam App 620", "Portal 2")
	if _, err := env.run("", "remove", "--yes", "--backup"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	out, err := env.run("", "undo", "--prune")
	if err != nil {
		t.Fatalf("undo --prune failed: %v", err)
	}
	if !strings.Contains(out, "Pruned 0 snapshot directories older than 90 days.") {
		t.Errorf("fresh snapshot should be kept:\n%s", out)
	}

	t.Setenv("REGPRUNE_SNAPSHOT_MAX_AGE_DAYS", "0")
	out, err = env.run("", "undo", "--prune")
	if err != nil {
		t.Fatalf("undo --prune failed: %v", err)
	}
	if !strings.Contains(out, "Pruned 1 snapshot directory older than 0 days.") {
		t.Errorf("expected one pruned snapshot:\n%s", out)
	}

	_, err = env.run("y\n", "undo", "1")
	if err == nil || !strings.Contains(err.Error(), "has been pruned") {
		t.Errorf("restoring a pruned snapshot should fail, got %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(env.dir, "snapshots"))
	if len(entries) != 0 {
		t.Errorf("snapshot directory still present: %v", entries)
	}
}
