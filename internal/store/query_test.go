package store

import "testing"

func TestListEventsStatusFilter(t *testing.T) {
	db := openTestDB(t)

	a := testArticle("p4abc:2026-01-01", "A")
	b := testArticle("p4def:2026-01-01", "B")
	db.UpsertEvent(a, "A", "s")
	db.UpsertEvent(b, "B", "s")
	db.MarkSent(a.RecordKey, "webhook")

	all, err := db.ListEvents(50, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}

	sent, err := db.ListEvents(50, StatusSent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent event, got %d", len(sent))
	}
	if sent[0].RecordKey != a.RecordKey {
		t.Errorf("expected %q, got %q", a.RecordKey, sent[0].RecordKey)
	}
}

func TestListEventsLimitClamp(t *testing.T) {
	db := openTestDB(t)
	a := testArticle("p4abc:2026-01-01", "A")
	db.UpsertEvent(a, "A", "s")

	events, err := db.ListEvents(0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected default limit to apply, got %d events", len(events))
	}

	if _, err := db.ListEvents(10000, ""); err != nil {
		t.Fatalf("expected oversized limit to be clamped, got %v", err)
	}
}

func TestGetEventAbsent(t *testing.T) {
	db := openTestDB(t)
	event, err := db.GetEvent("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Error("expected nil for missing event")
	}
}
