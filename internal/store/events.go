package store

import (
	"database/sql"
	"fmt"

	"github.com/afrpush/afrpush/internal/model"
)

const maxStoredErrorLen = 1000

// UpsertEvent inserts the event for article's record key, or refreshes its
// content fields if the key was seen before. A sent event stays sent; any
// other status resets to pending, which is what makes a re-fetched failed
// article eligible for retry on the next run.
func (db *DB) UpsertEvent(article model.Article, translatedTitle, translatedSummary string) error {
	var content *string
	if article.Content != "" {
		content = &article.Content
	}

	_, err := db.conn.Exec(`
		INSERT INTO article_events (
			record_key, article_id, url, title, summary, content,
			published_at, updated_at, translated_title, translated_summary,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)
		ON CONFLICT(record_key) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at,
			translated_title = excluded.translated_title,
			translated_summary = excluded.translated_summary,
			status = CASE
				WHEN article_events.status = 'sent' THEN 'sent'
				ELSE 'pending'
			END`,
		article.RecordKey, article.ArticleID, article.URL, article.Title,
		article.Summary, content, article.PublishedAt, article.UpdatedAt,
		translatedTitle, translatedSummary, model.UTCNow(),
	)
	if err != nil {
		return fmt.Errorf("upserting event %s: %w", article.RecordKey, err)
	}
	return nil
}

// MarkSent sets the event to sent, recording channel and timestamps and
// clearing the last error. No-op when the record key is absent; callers are
// expected to have upserted first.
func (db *DB) MarkSent(recordKey, channel string) error {
	now := model.UTCNow()
	_, err := db.conn.Exec(`
		UPDATE article_events
		SET status = 'sent', sent_channel = ?, sent_at = ?, last_attempt_at = ?, last_error = NULL
		WHERE record_key = ?`,
		channel, now, now, recordKey,
	)
	if err != nil {
		return fmt.Errorf("marking sent %s: %w", recordKey, err)
	}
	return nil
}

// MarkFailed sets the event to failed with a truncated error message.
// sent_at and sent_channel are left untouched. No-op when the record key
// is absent.
func (db *DB) MarkFailed(recordKey, errorMessage string) error {
	_, err := db.conn.Exec(`
		UPDATE article_events
		SET status = 'failed', last_error = ?, last_attempt_at = ?
		WHERE record_key = ?`,
		truncate(errorMessage, maxStoredErrorLen), model.UTCNow(), recordKey,
	)
	if err != nil {
		return fmt.Errorf("marking failed %s: %w", recordKey, err)
	}
	return nil
}

// IsSent reports whether the event for recordKey exists with status sent.
func (db *DB) IsSent(recordKey string) (bool, error) {
	status, err := db.EventStatus(recordKey)
	if err != nil {
		return false, err
	}
	return status == StatusSent, nil
}

// EventStatus returns the current status for recordKey, or "" when the
// event does not exist.
func (db *DB) EventStatus(recordKey string) (string, error) {
	var status string
	err := db.conn.QueryRow(
		"SELECT status FROM article_events WHERE record_key = ?", recordKey,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading status %s: %w", recordKey, err)
	}
	return status, nil
}

// SentTranslationByTitle returns the translated title and summary of the
// most recently sent event whose raw title matches exactly, or nil when no
// sent event carries that title. Pending and failed events never match.
func (db *DB) SentTranslationByTitle(title string) (*Translation, error) {
	var tr Translation
	err := db.conn.QueryRow(`
		SELECT translated_title, translated_summary
		FROM article_events
		WHERE title = ? AND status = 'sent'
		ORDER BY sent_at DESC
		LIMIT 1`,
		title,
	).Scan(&tr.Title, &tr.Summary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up sent translation: %w", err)
	}
	return &tr, nil
}

// GetStats returns aggregate event and delivery counts.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM article_events`,
	).Scan(&stats.TotalEvents, &stats.Pending, &stats.Sent, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("reading event stats: %w", err)
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM deliveries").Scan(&stats.TotalDeliveries); err != nil {
		return nil, fmt.Errorf("reading delivery stats: %w", err)
	}
	return stats, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
