package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Fetcher    Fetcher    `yaml:"fetcher"`
	Storage    Storage    `yaml:"storage"`
	Translator Translator `yaml:"translator"`
	Delivery   Delivery   `yaml:"delivery"`
	Preview    Preview    `yaml:"preview"`
	Schedule   Schedule   `yaml:"schedule"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Fetcher struct {
	Mode              string `yaml:"mode"` // homepage | rss
	HomepageURL       string `yaml:"homepage_url"`
	FeedURL           string `yaml:"feed_url"`
	ArticlePathPrefix string `yaml:"article_path_prefix"`
	MaxArticles       int    `yaml:"max_articles"`
	TimeoutSec        int    `yaml:"timeout_sec"`
	UserAgent         string `yaml:"user_agent"`
}

type Storage struct {
	DBPath string `yaml:"db_path"`
}

type Translator struct {
	Provider   string `yaml:"provider"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Endpoint   string `yaml:"endpoint"`
	GlossaryID string `yaml:"glossary_id"`
	Formality  string `yaml:"formality"`
	SourceLang string `yaml:"source_lang"`
	TargetLang string `yaml:"target_lang"`
}

type Delivery struct {
	Target       string   `yaml:"target"`
	ContentLimit int      `yaml:"content_limit"`
	Telegram     Telegram `yaml:"telegram"`
	Webhook      Webhook  `yaml:"webhook"`
	Script       Script   `yaml:"script"`
}

type Telegram struct {
	BotTokenEnv string `yaml:"bot_token_env"`
	ChatIDEnv   string `yaml:"chat_id_env"`
	APIBase     string `yaml:"api_base"`
}

type Webhook struct {
	URLEnv string `yaml:"url_env"`
}

type Script struct {
	Path       string `yaml:"path"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type Preview struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
}

type Schedule struct {
	IntervalSec int `yaml:"interval_sec"`
}

type Server struct {
	Port        int      `yaml:"port"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for afrpush.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "afrpush")
}

// DataDir returns the XDG data directory for afrpush.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "afrpush")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/afrpush/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'afrpush init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Fetcher: Fetcher{
			Mode:        "homepage",
			HomepageURL: "https://www.afr.com",
			MaxArticles: 10,
			TimeoutSec:  12,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		},
		Translator: Translator{
			Provider:   "deepl",
			APIKeyEnv:  "DEEPL_API_KEY",
			Endpoint:   "https://api-free.deepl.com/v2/translate",
			TargetLang: "ZH",
		},
		Delivery: Delivery{
			Target:       "File Transfer",
			ContentLimit: 2600,
			Telegram: Telegram{
				BotTokenEnv: "TELEGRAM_BOT_TOKEN",
				ChatIDEnv:   "TELEGRAM_CHAT_ID",
				APIBase:     "https://api.telegram.org",
			},
			Webhook: Webhook{URLEnv: "WECOM_WEBHOOK_URL"},
			Script:  Script{TimeoutSec: 45},
		},
		Schedule: Schedule{IntervalSec: 600},
		Server: Server{
			Port:      8750,
			APIKeyEnv: "AFRPUSH_API_KEY",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDBPath returns the effective database path from config or XDG default.
func (c *Config) GetDBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(DataDir(), "afrpush.db")
}

// GetPreviewDir returns the preview output directory, or "" when preview
// rendering is disabled.
func (c *Config) GetPreviewDir() string {
	if !c.Preview.Enabled {
		return ""
	}
	if c.Preview.OutputDir != "" {
		return c.Preview.OutputDir
	}
	return filepath.Join(DataDir(), "previews")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
