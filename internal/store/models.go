package store

// Event status values. Status is monotone once sent: re-upserting an event
// never moves it away from StatusSent.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Event is one persisted article delivery record, keyed by record key.
// Created on first sight, mutated on every processing attempt, never deleted.
type Event struct {
	RecordKey         string
	ArticleID         string
	URL               string
	Title             string
	Summary           string
	Content           *string
	PublishedAt       *string
	UpdatedAt         *string
	TranslatedTitle   string
	TranslatedSummary string
	Status            string
	SentChannel       *string
	LastError         *string
	CreatedAt         string
	LastAttemptAt     *string
	SentAt            *string
}

// Delivery is one append-only sender invocation record for an event.
type Delivery struct {
	ID              int64
	RecordKey       string
	Channel         string
	Target          string
	Success         bool
	ErrorMessage    *string
	ResponseExcerpt *string
	CreatedAt       string
}

// Translation is a cached (title, summary) translation pair from a sent event.
type Translation struct {
	Title   string
	Summary string
}

// Stats contains aggregate delivery statistics.
type Stats struct {
	TotalEvents     int
	Pending         int
	Sent            int
	Failed          int
	TotalDeliveries int
}
