package store

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS article_events (
    record_key TEXT PRIMARY KEY,
    article_id TEXT NOT NULL,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT,
    published_at TEXT,
    updated_at TEXT,
    translated_title TEXT NOT NULL,
    translated_summary TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    sent_channel TEXT,
    last_error TEXT,
    created_at TEXT NOT NULL,
    last_attempt_at TEXT,
    sent_at TEXT
);

CREATE TABLE IF NOT EXISTS deliveries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    record_key TEXT NOT NULL REFERENCES article_events(record_key),
    channel TEXT NOT NULL,
    target TEXT NOT NULL,
    success INTEGER NOT NULL,
    error_message TEXT,
    response_excerpt TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_article_events_status ON article_events(status);
CREATE INDEX IF NOT EXISTS idx_article_events_article_id ON article_events(article_id);
CREATE INDEX IF NOT EXISTS idx_article_events_title ON article_events(title);
CREATE INDEX IF NOT EXISTS idx_deliveries_record_key ON deliveries(record_key);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
