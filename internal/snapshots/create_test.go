package snapshots

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/regprune/internal/regfile"
	"github.com/blackwell-systems/regprune/internal/scanner"
	"github.com/blackwell-systems/regprune/internal/store"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

const uninstall = `HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Uninstall`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := db.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRegistry(t *testing.T) *winreg.Memory {
	t.Helper()
	m := winreg.NewMemory()
	steam := uninstall + `\Steam App 10`
	if err := m.Set(steam,
		winreg.StringValue("DisplayName", "Counter-Strike"),
		winreg.StringValue("Publisher", "Valve"),
		winreg.StringValue("UninstallString", `"C:\Program Files (x86)\Steam\steam.exe" steam://uninstall/10`),
		winreg.DWordValue("NoModify", 1),
	); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(steam+`\Extra`, winreg.MultiStringValue("List", []string{"a", "b"})); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(uninstall+`\Steam App 20`, winreg.StringValue("DisplayName", `Quote " and \ slash`)); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBackup(t *testing.T) {
	reg := seedRegistry(t)
	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	mgr := New(reg, newTestStore(t), dir, nil)

	path, err := mgr.Backup(uninstall+`\Steam App 10`, "steam10")
	if err != nil {
		t.Fatalf("Backup() failed: %v", err)
	}
	if path != filepath.Join(dir, "steam10.reg") {
		t.Errorf("Backup() path = %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	defer f.Close()

	blocks, err := regfile.Decode(f)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected key and subkey blocks, got %d", len(blocks))
	}
	if blocks[0].Path != uninstall+`\Steam App 10` {
		t.Errorf("first block path = %s", blocks[0].Path)
	}
	if len(blocks[0].Values) != 4 {
		t.Errorf("expected 4 values, got %d", len(blocks[0].Values))
	}
	if blocks[1].Path != uninstall+`\Steam App 10\Extra` {
		t.Errorf("second block path = %s", blocks[1].Path)
	}
	if reg.Mutations() != 0 {
		t.Errorf("backup mutated the registry %d times", reg.Mutations())
	}
}

func TestBackup_Skipped(t *testing.T) {
	mgr := New(seedRegistry(t), newTestStore(t), t.TempDir(), nil)

	for _, keyPath := range []string{
		`HKEY_BOGUS\X\Y`,
		`HKEY_CURRENT_USER`,
		uninstall + `\Missing`,
	} {
		_, err := mgr.Backup(keyPath, "x")
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("Backup(%q) error = %v, want ErrSkipped", keyPath, err)
		}
	}

	files, _ := os.ReadDir(mgr.Dir())
	if len(files) != 0 {
		t.Errorf("skipped backups left %d files behind", len(files))
	}
}

func TestCreateSnapshot(t *testing.T) {
	reg := seedRegistry(t)
	db := newTestStore(t)
	snapshotDir := filepath.Join(t.TempDir(), "snapshots")
	mgr := New(reg, db, snapshotDir, nil)

	var seen []string
	mgr.OnKeyBackedUp = func(keyPath string) { seen = append(seen, keyPath) }

	entries := []*scanner.Entry{
		{DisplayName: "Counter-Strike", KeyPath: uninstall + `\Steam App 10`},
		{DisplayName: "Gone", KeyPath: uninstall + `\Steam App 99`},
		{DisplayName: "Bogus", KeyPath: `HKEY_BOGUS\X\Y`},
		{DisplayName: "Quote", KeyPath: uninstall + `\Steam App 20`},
	}

	id, err := mgr.CreateSnapshot(entries, "before removal")
	if err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}
	if len(seen) != 4 {
		t.Errorf("OnKeyBackedUp called %d times, want 4", len(seen))
	}

	snap, err := db.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if snap.KeyCount != 2 {
		t.Errorf("KeyCount = %d, want 2", snap.KeyCount)
	}
	if snap.Reason != "before removal" {
		t.Errorf("Reason = %q", snap.Reason)
	}
	if filepath.Dir(snap.SnapshotPath) != snapshotDir {
		t.Errorf("snapshot dir %s is not below %s", snap.SnapshotPath, snapshotDir)
	}

	keys, err := db.GetSnapshotKeys(id)
	if err != nil {
		t.Fatalf("GetSnapshotKeys() failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].BackupFile != "01-Steam App 10.reg" || keys[1].BackupFile != "04-Steam App 20.reg" {
		t.Errorf("unexpected backup files: %s, %s", keys[0].BackupFile, keys[1].BackupFile)
	}
	for _, k := range keys {
		if _, err := os.Stat(filepath.Join(snap.SnapshotPath, k.BackupFile)); err != nil {
			t.Errorf("backup file missing: %v", err)
		}
	}

	if err := mgr.RecordOutcome(id, keys[0].KeyPath, "removed"); err != nil {
		t.Errorf("RecordOutcome() failed: %v", err)
	}
}

func TestCreateSnapshot_NothingBackedUp(t *testing.T) {
	mgr := New(winreg.NewMemory(), newTestStore(t), t.TempDir(), nil)

	_, err := mgr.CreateSnapshot([]*scanner.Entry{{KeyPath: uninstall + `\Missing`}}, "test")
	if !errors.Is(err, ErrNothingBackedUp) {
		t.Fatalf("CreateSnapshot() error = %v, want ErrNothingBackedUp", err)
	}

	dirs, _ := os.ReadDir(mgr.Dir())
	if len(dirs) != 0 {
		t.Errorf("expected empty snapshot directory to be removed, found %d entries", len(dirs))
	}

	snaps, err := mgr.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("expected no snapshot rows, got %d", len(snaps))
	}
}

func TestCreateSnapshot_KeyInsertFailureCleansUp(t *testing.T) {
	mgr := New(seedRegistry(t), newTestStore(t), t.TempDir(), nil)

	// The same key twice backs up fine but violates the key table's
	// primary key on the second insert.
	entries := []*scanner.Entry{
		{KeyPath: uninstall + `\Steam App 10`},
		{KeyPath: uninstall + `\Steam App 10`},
	}
	if _, err := mgr.CreateSnapshot(entries, "dup"); err == nil {
		t.Fatal("expected CreateSnapshot() to fail on duplicate key")
	}

	snaps, err := mgr.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("expected incomplete snapshot row to be deleted, got %d", len(snaps))
	}
	dirs, _ := os.ReadDir(mgr.Dir())
	if len(dirs) != 0 {
		t.Errorf("expected incomplete snapshot directory to be removed, found %d entries", len(dirs))
	}
}

func TestCreateSnapshot_SameSecond(t *testing.T) {
	reg := seedRegistry(t)
	mgr := New(reg, newTestStore(t), t.TempDir(), nil)
	entries := []*scanner.Entry{{KeyPath: uninstall + `\Steam App 10`}}

	id1, err := mgr.CreateSnapshot(entries, "one")
	if err != nil {
		t.Fatalf("first CreateSnapshot() failed: %v", err)
	}
	id2, err := mgr.CreateSnapshot(entries, "two")
	if err != nil {
		t.Fatalf("second CreateSnapshot() failed: %v", err)
	}

	snaps, err := mgr.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].ID != id2 || snaps[1].ID != id1 {
		t.Errorf("expected newest first")
	}
	if snaps[0].SnapshotPath == snaps[1].SnapshotPath {
		t.Errorf("snapshots share directory %s", snaps[0].SnapshotPath)
	}
}

func TestNewSnapshotDir_Suffix(t *testing.T) {
	mgr := New(winreg.NewMemory(), nil, t.TempDir(), nil)
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	first, err := mgr.newSnapshotDir(now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.newSnapshotDir(now)
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(first) != "2024-03-01-123045" {
		t.Errorf("first dir = %s", filepath.Base(first))
	}
	if filepath.Base(second) != "2024-03-01-123045-2" {
		t.Errorf("second dir = %s", filepath.Base(second))
	}
}

func TestCleanupOldSnapshots(t *testing.T) {
	reg := seedRegistry(t)
	mgr := New(reg, newTestStore(t), t.TempDir(), nil)

	id, err := mgr.CreateSnapshot([]*scanner.Entry{{KeyPath: uninstall + `\Steam App 10`}}, "test")
	if err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}

	deleted, err := mgr.CleanupOldSnapshots(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldSnapshots() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("fresh snapshot should survive, %d deleted", deleted)
	}

	deleted, err = mgr.CleanupOldSnapshots(-time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldSnapshots() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted snapshot, got %d", deleted)
	}

	snaps, _ := mgr.ListSnapshots()
	if len(snaps) != 1 || snaps[0].ID != id {
		t.Fatalf("database row should be kept as history")
	}
	if _, err := os.Stat(snaps[0].SnapshotPath); !os.IsNotExist(err) {
		t.Errorf("snapshot directory still exists: %v", err)
	}

	deleted, _ = mgr.CleanupOldSnapshots(-time.Hour)
	if deleted != 0 {
		t.Errorf("already-deleted directory counted again")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Steam App 10", "Steam App 10"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{" trailing. ", "trailing"},
		{"...", "key"},
		{"tab\there", "tab_here"},
	}

	for _, tt := range tests {
		if got := sanitizeFileName(tt.in); got != tt.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLeafName(t *testing.T) {
	if got := leafName(uninstall + `\Steam App 10`); got != "Steam App 10" {
		t.Errorf("leafName() = %q", got)
	}
	if got := leafName("garbage"); !strings.Contains(got, "garbage") {
		t.Errorf("leafName() = %q", got)
	}
}
