package store

import "time"

// Snapshot is a set of .reg backups taken before a removal run.
type Snapshot struct {
	ID           int64
	CreatedAt    time.Time
	Reason       string
	KeyCount     int
	SnapshotPath string
}

// SnapshotKey is one backed-up registry key in a snapshot. BackupFile is
// relative to the snapshot's directory. Outcome is empty until the key's
// removal has been attempted.
type SnapshotKey struct {
	SnapshotID  int64
	KeyPath     string
	DisplayName string
	BackupFile  string
	Outcome     string
}
