package store

import (
	"errors"
	"testing"
	"time"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestListSnapshots_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	// Do NOT call CreateSchema
	_, err = s.ListSnapshots()
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListSnapshots() error = %v; want ErrNotInitialized", err)
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("second CreateSchema() failed: %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	if v, err := s.SchemaVersion(); err != nil || v != 0 {
		t.Fatalf("SchemaVersion() before CreateSchema = %d, %v; want 0", v, err)
	}
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if v, err := s.SchemaVersion(); err != nil || v != schemaVersion {
		t.Errorf("SchemaVersion() = %d, %v; want %d", v, err, schemaVersion)
	}
}

func TestInsertAndGetSnapshot(t *testing.T) {
	s := newTestStore(t)

	before := time.Now().Add(-time.Second)
	id, err := s.InsertSnapshot("before removal", 3, "/tmp/snap")
	if err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive ID, got %d", id)
	}

	snap, err := s.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if snap.Reason != "before removal" {
		t.Errorf("Reason = %q", snap.Reason)
	}
	if snap.KeyCount != 3 {
		t.Errorf("KeyCount = %d, want 3", snap.KeyCount)
	}
	if snap.SnapshotPath != "/tmp/snap" {
		t.Errorf("SnapshotPath = %q", snap.SnapshotPath)
	}
	if snap.CreatedAt.Before(before.Truncate(time.Second)) {
		t.Errorf("CreatedAt %v is before %v", snap.CreatedAt, before)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSnapshot(999)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot(999) error = %v; want ErrSnapshotNotFound", err)
	}

	_, err = s.LatestSnapshot()
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LatestSnapshot() error = %v; want ErrSnapshotNotFound", err)
	}
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	var ids []int64
	for _, reason := range []string{"first", "second", "third"} {
		id, err := s.InsertSnapshot(reason, 1, "/tmp/"+reason)
		if err != nil {
			t.Fatalf("InsertSnapshot(%s) failed: %v", reason, err)
		}
		ids = append(ids, id)
	}

	snaps, err := s.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	// Rows created within the same second are ordered by ID.
	if snaps[0].ID != ids[2] || snaps[2].ID != ids[0] {
		t.Errorf("unexpected order: %d, %d, %d", snaps[0].ID, snaps[1].ID, snaps[2].ID)
	}

	latest, err := s.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot() failed: %v", err)
	}
	if latest.ID != snaps[0].ID {
		t.Errorf("LatestSnapshot() = %d, want %d", latest.ID, snaps[0].ID)
	}
}

func TestSnapshotKeys(t *testing.T) {
	s := newTestStore(t)

	id, err := s.InsertSnapshot("before removal", 2, "/tmp/snap")
	if err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}

	keys := []*SnapshotKey{
		{KeyPath: `HKEY_CURRENT_USER\Software\U\Steam App 20`, DisplayName: "Team Fortress 2", BackupFile: "01-Steam App 20.reg"},
		{KeyPath: `HKEY_CURRENT_USER\Software\U\Steam App 10`, DisplayName: "Counter-Strike", BackupFile: "02-Steam App 10.reg"},
	}
	for _, k := range keys {
		if err := s.InsertSnapshotKey(id, k); err != nil {
			t.Fatalf("InsertSnapshotKey() failed: %v", err)
		}
	}

	if err := s.InsertSnapshotKey(id, keys[0]); err == nil {
		t.Error("expected duplicate key path to be rejected")
	}

	if err := s.SetKeyOutcome(id, keys[1].KeyPath, "removed"); err != nil {
		t.Fatalf("SetKeyOutcome() failed: %v", err)
	}
	if err := s.SetKeyOutcome(id, `HKEY_CURRENT_USER\nope`, "removed"); err == nil {
		t.Error("expected error for unknown key path")
	}

	got, err := s.GetSnapshotKeys(id)
	if err != nil {
		t.Fatalf("GetSnapshotKeys() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(got))
	}
	if got[0].BackupFile != "01-Steam App 20.reg" {
		t.Errorf("keys not in insertion order: first is %s", got[0].BackupFile)
	}
	if got[0].Outcome != "" {
		t.Errorf("expected empty outcome, got %q", got[0].Outcome)
	}
	if got[1].Outcome != "removed" {
		t.Errorf("Outcome = %q, want removed", got[1].Outcome)
	}
	if got[1].SnapshotID != id || got[1].DisplayName != "Counter-Strike" {
		t.Errorf("unexpected key row: %+v", got[1])
	}
}

func TestSnapshotKeys_ForeignKey(t *testing.T) {
	s := newTestStore(t)

	err := s.InsertSnapshotKey(42, &SnapshotKey{KeyPath: "x", BackupFile: "x.reg"})
	if err == nil {
		t.Error("expected foreign key violation for unknown snapshot")
	}
}

func TestSnapshotCascadeDelete(t *testing.T) {
	s := newTestStore(t)

	id, _ := s.InsertSnapshot("test", 1, "/tmp/x")
	if err := s.InsertSnapshotKey(id, &SnapshotKey{KeyPath: "k", BackupFile: "k.reg"}); err != nil {
		t.Fatalf("InsertSnapshotKey() failed: %v", err)
	}

	if err := s.DeleteSnapshot(id); err != nil {
		t.Fatalf("DeleteSnapshot() failed: %v", err)
	}
	if _, err := s.GetSnapshot(id); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot() after delete error = %v, want ErrSnapshotNotFound", err)
	}

	keys, err := s.GetSnapshotKeys(id)
	if err != nil {
		t.Fatalf("GetSnapshotKeys() failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected cascade delete, %d keys remain", len(keys))
	}
}
