package store

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    reason TEXT,
    key_count INTEGER,
    snapshot_path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_keys (
    snapshot_id INTEGER NOT NULL,
    key_path TEXT NOT NULL,
    display_name TEXT,
    backup_file TEXT NOT NULL,
    outcome TEXT,
    PRIMARY KEY (snapshot_id, key_path),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_snapshot_keys ON snapshot_keys(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`
