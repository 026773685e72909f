package preview

import (
	"image/png"
	"os"
	"strings"
	"testing"
)

func TestRenderWritesDecodablePNG(t *testing.T) {
	dir := t.TempDir()

	path, err := Render(dir, "AFR Digest", []string{"Title One", "Title Two", "Title Three"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open rendered file: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode rendered png: %v", err)
	}
	if img.Bounds().Dx() != cardWidth {
		t.Errorf("unexpected width %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() <= 0 {
		t.Error("expected positive height")
	}
}

func TestRenderNoTitles(t *testing.T) {
	if _, err := Render(t.TempDir(), "AFR Digest", nil); err == nil {
		t.Error("expected error for empty title list")
	}
}

func TestClipRunes(t *testing.T) {
	long := strings.Repeat("标", 100)
	clipped := clipRunes(long, maxTitleRunes)
	if got := len([]rune(clipped)); got != maxTitleRunes {
		t.Errorf("expected %d runes, got %d", maxTitleRunes, got)
	}
	if !strings.HasSuffix(clipped, "...") {
		t.Error("expected ellipsis suffix")
	}
	if clipRunes("short", maxTitleRunes) != "short" {
		t.Error("short titles must pass through unchanged")
	}
}
