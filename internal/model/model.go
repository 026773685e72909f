package model

import "time"

// Article is a normalized article as produced by a fetcher. Immutable per
// fetch; the store keeps its own persisted copy.
type Article struct {
	ArticleID   string
	RecordKey   string
	URL         string
	Title       string
	Summary     string
	Content     string
	PublishedAt *string // ISO-8601 UTC or nil
	UpdatedAt   *string // ISO-8601 UTC or nil
}

// DeliveryResult is the outcome of a single sender invocation.
type DeliveryResult struct {
	Channel         string
	Success         bool
	ErrorMessage    string
	ResponseExcerpt string
}

// PipelineStats summarizes one pipeline run. Not persisted.
type PipelineStats struct {
	Fetched int
	Sent    int
	Failed  int
	Skipped int
}

// UTCNow returns the current time as an ISO-8601 UTC string, the timestamp
// format used throughout the store.
func UTCNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
