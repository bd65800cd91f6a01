// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for the operation queue and session log
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_queue (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	payload TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	retry_count INTEGER NOT NULL DEFAULT 0,
	last_retry_at DATETIME,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_queue_priority ON sync_queue(priority DESC, created_at ASC);
CREATE INDEX IF NOT EXISTS idx_sync_queue_type ON sync_queue(type);

CREATE TABLE IF NOT EXISTS focus_sessions (
	id TEXT PRIMARY KEY,
	duration INTEGER NOT NULL,
	xp_earned INTEGER NOT NULL,
	coins_earned INTEGER NOT NULL,
	session_type TEXT NOT NULL,
	completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_focus_sessions_completed_at ON focus_sessions(completed_at);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	total_synced INTEGER NOT NULL DEFAULT 0,
	total_failed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates all tables and indexes if they don't exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
