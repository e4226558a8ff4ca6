package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. The store keeps each record's full
// document as a JSON blob plus extracted columns for dashboard listing and
// full-text search.
func (db *DB) RunMigrations() error {
	migration := `
-- Complaint records. document holds the full serialized record including
-- history; the remaining columns are extracted for listing and FTS sync.
CREATE TABLE IF NOT EXISTS complaints (
    id TEXT PRIMARY KEY,
    state TEXT NOT NULL CHECK(state IN (
        'New', 'Acknowledged', 'Under_Investigation', 'RCA_Complete',
        'CAPA_In_Progress', 'Sustenance', 'Resolved', 'Closed', 'On_Hold'
    )),
    category TEXT,
    site_name TEXT,
    date_of_issue TEXT,
    description TEXT,
    last_summary TEXT,
    document TEXT NOT NULL,
    rev INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_complaints_state ON complaints(state);
CREATE INDEX IF NOT EXISTS idx_complaints_category ON complaints(category);

-- Audit trail
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    complaint_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_audit_complaint ON audit_log(complaint_id);
CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_log(created_at);

-- Full-text search (SQLite FTS5)
CREATE VIRTUAL TABLE IF NOT EXISTS complaints_fts USING fts5(
    description,
    last_summary,
    content='complaints',
    content_rowid='rowid'
);

-- Triggers to keep FTS index synchronized
CREATE TRIGGER IF NOT EXISTS complaints_ai AFTER INSERT ON complaints BEGIN
    INSERT INTO complaints_fts(rowid, description, last_summary)
    VALUES (new.rowid, new.description, new.last_summary);
END;

CREATE TRIGGER IF NOT EXISTS complaints_ad AFTER DELETE ON complaints BEGIN
    INSERT INTO complaints_fts(complaints_fts, rowid, description, last_summary)
    VALUES('delete', old.rowid, old.description, old.last_summary);
END;

CREATE TRIGGER IF NOT EXISTS complaints_au AFTER UPDATE ON complaints BEGIN
    INSERT INTO complaints_fts(complaints_fts, rowid, description, last_summary)
    VALUES('delete', old.rowid, old.description, old.last_summary);
    INSERT INTO complaints_fts(rowid, description, last_summary)
    VALUES (new.rowid, new.description, new.last_summary);
END;
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
