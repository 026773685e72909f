package store

import (
	"fmt"

	"github.com/afrpush/afrpush/internal/model"
)

const maxExcerptLen = 1000

// RecordDeliveryAttempt appends one delivery attempt row for recordKey.
// Attempt rows are append-only and never mutated. Callers treat a failure
// here as best-effort logging: it must not abort delivery bookkeeping.
func (db *DB) RecordDeliveryAttempt(recordKey, target string, result model.DeliveryResult) error {
	success := 0
	if result.Success {
		success = 1
	}

	_, err := db.conn.Exec(`
		INSERT INTO deliveries (
			record_key, channel, target, success,
			error_message, response_excerpt, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recordKey, result.Channel, target, success,
		nullable(truncate(result.ErrorMessage, maxExcerptLen)),
		nullable(truncate(result.ResponseExcerpt, maxExcerptLen)),
		model.UTCNow(),
	)
	if err != nil {
		return fmt.Errorf("recording delivery attempt %s: %w", recordKey, err)
	}
	return nil
}

// DeliveriesForEvent returns the most recent delivery attempts for an event,
// newest first.
func (db *DB) DeliveriesForEvent(recordKey string, limit int) ([]Delivery, error) {
	rows, err := db.conn.Query(`
		SELECT id, record_key, channel, target, success, error_message, response_excerpt, created_at
		FROM deliveries
		WHERE record_key = ?
		ORDER BY id DESC
		LIMIT ?`,
		recordKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries %s: %w", recordKey, err)
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		var success int
		if err := rows.Scan(&d.ID, &d.RecordKey, &d.Channel, &d.Target, &success,
			&d.ErrorMessage, &d.ResponseExcerpt, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Success = success != 0
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
