package message

import (
	"strings"
	"testing"
)

func TestFormatDigest(t *testing.T) {
	got := FormatDigest([]string{"Title One", "Title Two"})
	want := "1. Title One；2. Title Two"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatDigestSkipsBlankTitles(t *testing.T) {
	got := FormatDigest([]string{"First", "  ", "", "Second"})
	want := "1. First；2. Second"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatDigestEmpty(t *testing.T) {
	if got := FormatDigest(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := FormatDigest([]string{" ", "\t"}); got != "" {
		t.Errorf("expected empty string for blank titles, got %q", got)
	}
}

func TestFormatSingleArticle(t *testing.T) {
	got := FormatSingleArticle("T", "C", DefaultContentLimit)
	want := "标题：T\n\n内容：C"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatSingleArticleEmptyContent(t *testing.T) {
	if got := FormatSingleArticle("Just a title", "  ", DefaultContentLimit); got != "Just a title" {
		t.Errorf("expected bare title, got %q", got)
	}
}

func TestFormatSingleArticleTinyLimit(t *testing.T) {
	// Limits below the ellipsis length must not panic; the body
	// degrades to just the marker.
	for _, limit := range []int{1, 2, 3} {
		got := FormatSingleArticle("T", "CCCC", limit)
		want := "标题：T\n\n内容：..."
		if got != want {
			t.Errorf("limit %d: expected %q, got %q", limit, want, got)
		}
	}
}

func TestFormatSingleArticleTruncates(t *testing.T) {
	long := strings.Repeat("a", 5000)
	got := FormatSingleArticle("T", long, 100)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis marker, got tail %q", got[len(got)-10:])
	}
	body := strings.TrimPrefix(got, "标题：T\n\n内容：")
	if len([]rune(body)) != 100 {
		t.Errorf("expected body of 100 chars, got %d", len([]rune(body)))
	}
}
