package store

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/afrpush/afrpush/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testArticle(recordKey, title string) model.Article {
	return model.Article{
		ArticleID: "p4abc",
		RecordKey: recordKey,
		URL:       "https://www.afr.com/markets/example-20260101-p4abc",
		Title:     title,
		Summary:   "A short summary",
	}
}

func TestUpsertCreatesPending(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")

	if err := db.UpsertEvent(a, a.Title, a.Summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := db.EventStatus(a.RecordKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusPending {
		t.Errorf("expected pending, got %q", status)
	}
}

func TestEventStatusAbsentKey(t *testing.T) {
	db := openTestDB(t)
	status, err := db.EventStatus("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "" {
		t.Errorf("expected empty status, got %q", status)
	}
}

func TestSentStatusSurvivesReupsert(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")

	db.UpsertEvent(a, a.Title, a.Summary)
	if err := db.MarkSent(a.RecordKey, "telegram-bot"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A re-scrape returning updated text must not regress the status.
	if err := db.UpsertEvent(a, "利率维持不变", "新的摘要"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent, err := db.IsSent(a.RecordKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sent {
		t.Error("expected event to remain sent after re-upsert")
	}

	event, _ := db.GetEvent(a.RecordKey)
	if event.TranslatedTitle != "利率维持不变" {
		t.Errorf("expected content fields refreshed, got %q", event.TranslatedTitle)
	}
}

func TestFailedResetsToPendingOnReupsert(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")

	db.UpsertEvent(a, a.Title, a.Summary)
	db.MarkFailed(a.RecordKey, "translate timeout")

	// Re-fetching a failed article queues it for another attempt.
	db.UpsertEvent(a, a.Title, a.Summary)

	status, _ := db.EventStatus(a.RecordKey)
	if status != StatusPending {
		t.Errorf("expected pending after re-upsert of failed event, got %q", status)
	}
}

func TestMarkSentClearsError(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")

	db.UpsertEvent(a, a.Title, a.Summary)
	db.MarkFailed(a.RecordKey, "send failed")
	db.MarkSent(a.RecordKey, "webhook")

	event, err := db.GetEvent(a.RecordKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Status != StatusSent {
		t.Errorf("expected sent, got %q", event.Status)
	}
	if event.LastError != nil {
		t.Errorf("expected last_error cleared, got %q", *event.LastError)
	}
	if event.SentChannel == nil || *event.SentChannel != "webhook" {
		t.Error("expected sent_channel webhook")
	}
	if event.SentAt == nil {
		t.Error("expected sent_at set")
	}
}

func TestMarkFailedAbsentKeyIsNoop(t *testing.T) {
	db := openTestDB(t)
	if err := db.MarkFailed("never-upserted", "boom"); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	status, _ := db.EventStatus("never-upserted")
	if status != "" {
		t.Errorf("expected no row created, got status %q", status)
	}
}

func TestMarkFailedTruncatesError(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")
	db.UpsertEvent(a, a.Title, a.Summary)

	db.MarkFailed(a.RecordKey, strings.Repeat("x", 5000))

	event, _ := db.GetEvent(a.RecordKey)
	if event.LastError == nil {
		t.Fatal("expected last_error set")
	}
	if len(*event.LastError) != maxStoredErrorLen {
		t.Errorf("expected error truncated to %d chars, got %d", maxStoredErrorLen, len(*event.LastError))
	}
}

func TestMarkFailedTruncatesMultibyteError(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")
	db.UpsertEvent(a, a.Title, a.Summary)

	// Translated error text must not be cut mid-rune.
	db.MarkFailed(a.RecordKey, strings.Repeat("翻译失败", 500))

	event, _ := db.GetEvent(a.RecordKey)
	if event.LastError == nil {
		t.Fatal("expected last_error set")
	}
	if !utf8.ValidString(*event.LastError) {
		t.Error("expected stored error to remain valid UTF-8")
	}
	if got := len([]rune(*event.LastError)); got != maxStoredErrorLen {
		t.Errorf("expected error truncated to %d chars, got %d", maxStoredErrorLen, got)
	}
}

func TestSentTranslationByTitle(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")

	db.UpsertEvent(a, "利率维持", "摘要一")
	tr, err := db.SentTranslationByTitle("Rates hold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr != nil {
		t.Error("expected no hit for pending event")
	}

	db.MarkFailed(a.RecordKey, "boom")
	tr, _ = db.SentTranslationByTitle("Rates hold")
	if tr != nil {
		t.Error("expected no hit for failed event")
	}

	db.MarkSent(a.RecordKey, "telegram-bot")
	tr, err = db.SentTranslationByTitle("Rates hold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr == nil {
		t.Fatal("expected cache hit once event is sent")
	}
	if tr.Title != "利率维持" || tr.Summary != "摘要一" {
		t.Errorf("unexpected translation pair: %q / %q", tr.Title, tr.Summary)
	}
}

func TestSentTranslationPrefersMostRecent(t *testing.T) {
	db := openTestDB(t)

	first := testArticle("p4abc:2026-01-01", "Rates hold")
	second := testArticle("p4abc:2026-01-02", "Rates hold")

	db.UpsertEvent(first, "旧译文", "旧摘要")
	db.MarkSent(first.RecordKey, "webhook")

	db.UpsertEvent(second, "新译文", "新摘要")
	// Force a later sent_at than the first event.
	db.conn.Exec("UPDATE article_events SET status='sent', sent_at='2099-01-01T00:00:00Z' WHERE record_key=?", second.RecordKey)

	tr, err := db.SentTranslationByTitle("Rates hold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr == nil || tr.Title != "新译文" {
		t.Errorf("expected most recently sent translation, got %+v", tr)
	}
}

func TestRecordDeliveryAttempt(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "Rates hold")
	db.UpsertEvent(a, a.Title, a.Summary)

	db.RecordDeliveryAttempt(a.RecordKey, "chat-1", model.DeliveryResult{
		Channel:      "telegram-bot",
		Success:      false,
		ErrorMessage: "HTTP 502",
	})
	db.RecordDeliveryAttempt(a.RecordKey, "chat-1", model.DeliveryResult{
		Channel:         "webhook",
		Success:         true,
		ResponseExcerpt: `{"errcode":0}`,
	})

	deliveries, err := db.DeliveriesForEvent(a.RecordKey, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(deliveries))
	}
	// Newest first.
	if deliveries[0].Channel != "webhook" || !deliveries[0].Success {
		t.Errorf("unexpected first delivery: %+v", deliveries[0])
	}
	if deliveries[1].ErrorMessage == nil || *deliveries[1].ErrorMessage != "HTTP 502" {
		t.Error("expected error message on failed attempt")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEvents != 0 {
		t.Errorf("expected 0 events, got %d", stats.TotalEvents)
	}

	a := testArticle("p4abc:2026-01-01", "A")
	b := testArticle("p4def:2026-01-01", "B")
	b.ArticleID = "p4def"
	db.UpsertEvent(a, "A", "s")
	db.UpsertEvent(b, "B", "s")
	db.MarkSent(a.RecordKey, "webhook")
	db.RecordDeliveryAttempt(a.RecordKey, "t", model.DeliveryResult{Channel: "webhook", Success: true})

	stats, _ = db.GetStats()
	if stats.TotalEvents != 2 || stats.Sent != 1 || stats.Pending != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.TotalDeliveries != 1 {
		t.Errorf("expected 1 delivery, got %d", stats.TotalDeliveries)
	}
}
