package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Fetcher.Mode != "homepage" {
		t.Errorf("expected mode 'homepage', got %q", cfg.Fetcher.Mode)
	}
	if cfg.Fetcher.HomepageURL != "https://www.afr.com" {
		t.Errorf("unexpected homepage url %q", cfg.Fetcher.HomepageURL)
	}
	if cfg.Translator.Provider != "deepl" {
		t.Errorf("expected provider 'deepl', got %q", cfg.Translator.Provider)
	}
	if cfg.Translator.APIKeyEnv != "DEEPL_API_KEY" {
		t.Errorf("unexpected api_key_env %q", cfg.Translator.APIKeyEnv)
	}
	if cfg.Delivery.ContentLimit != 2600 {
		t.Errorf("expected content limit 2600, got %d", cfg.Delivery.ContentLimit)
	}
	if cfg.Server.Port != 8750 {
		t.Errorf("expected port 8750, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
fetcher:
  mode: rss
  feed_url: https://www.afr.com/rss/feed.xml
  max_articles: 1
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Fetcher.Mode != "rss" {
		t.Errorf("expected mode 'rss', got %q", cfg.Fetcher.Mode)
	}
	if cfg.Fetcher.MaxArticles != 1 {
		t.Errorf("expected max_articles 1, got %d", cfg.Fetcher.MaxArticles)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Translator.Endpoint != "https://api-free.deepl.com/v2/translate" {
		t.Errorf("expected default endpoint, got %q", cfg.Translator.Endpoint)
	}
	if cfg.Delivery.Target != "File Transfer" {
		t.Errorf("expected default target, got %q", cfg.Delivery.Target)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Fetcher.MaxArticles != 10 {
		t.Errorf("expected max_articles 10, got %d", cfg.Fetcher.MaxArticles)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetDBPathDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDBPath(); filepath.Base(got) != "afrpush.db" {
		t.Errorf("expected default db filename, got %q", got)
	}

	cfg.Storage.DBPath = "/tmp/custom.db"
	if got := cfg.GetDBPath(); got != "/tmp/custom.db" {
		t.Errorf("expected explicit path, got %q", got)
	}
}

func TestGetPreviewDir(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetPreviewDir(); got != "" {
		t.Errorf("expected empty dir when disabled, got %q", got)
	}

	cfg.Preview.Enabled = true
	if got := cfg.GetPreviewDir(); got == "" {
		t.Error("expected default dir when enabled")
	}

	cfg.Preview.OutputDir = "/tmp/previews"
	if got := cfg.GetPreviewDir(); got != "/tmp/previews" {
		t.Errorf("expected explicit dir, got %q", got)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}
