package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Query projection limits for the read-only API.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var eventColumns = []string{
	"record_key", "article_id", "url", "title", "summary", "content",
	"published_at", "updated_at", "translated_title", "translated_summary",
	"status", "sent_channel", "last_error", "created_at", "last_attempt_at", "sent_at",
}

// ListEvents returns events for the query API, most recently touched first.
// An empty status returns all events; limit is clamped to [1, MaxListLimit].
func (db *DB) ListEvents(limit int, status string) ([]Event, error) {
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	builder := sq.Select(eventColumns...).
		From("article_events").
		OrderBy("COALESCE(sent_at, last_attempt_at, created_at) DESC", "created_at DESC").
		Limit(uint64(limit))
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetEvent returns a single event by record key, or nil when absent.
func (db *DB) GetEvent(recordKey string) (*Event, error) {
	query, args, err := sq.Select(eventColumns...).
		From("article_events").
		Where(sq.Eq{"record_key": recordKey}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get query: %w", err)
	}

	e, err := scanEvent(db.conn.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", recordKey, err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.RecordKey, &e.ArticleID, &e.URL, &e.Title, &e.Summary, &e.Content,
		&e.PublishedAt, &e.UpdatedAt, &e.TranslatedTitle, &e.TranslatedSummary,
		&e.Status, &e.SentChannel, &e.LastError, &e.CreatedAt, &e.LastAttemptAt, &e.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
