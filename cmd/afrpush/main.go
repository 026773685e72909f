package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/afrpush/afrpush/internal/config"
	"github.com/afrpush/afrpush/internal/fetch"
	"github.com/afrpush/afrpush/internal/metrics"
	"github.com/afrpush/afrpush/internal/pipeline"
	"github.com/afrpush/afrpush/internal/schedule"
	"github.com/afrpush/afrpush/internal/send"
	"github.com/afrpush/afrpush/internal/server"
	"github.com/afrpush/afrpush/internal/store"
	"github.com/afrpush/afrpush/internal/translate"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "afrpush",
	Short:   "Translated AFR headline delivery",
	Long:    "afrpush scrapes afr.com, translates new articles, and pushes them to Telegram, a group webhook, or a local script, deduplicating against everything already delivered.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("afrpush", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/afrpush/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the fetcher, translator, and delivery channels.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show delivery database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Articles:")
		fmt.Printf("  Total tracked: %d\n", stats.TotalEvents)
		fmt.Printf("  Pending: %d\n", stats.Pending)
		fmt.Printf("  Sent: %d\n", stats.Sent)
		fmt.Printf("  Failed: %d\n", stats.Failed)
		fmt.Println("\nDeliveries:")
		fmt.Printf("  Total attempts: %d\n", stats.TotalDeliveries)
		return nil
	},
}

// --- run command ---

var (
	dryRun      bool
	sendChannel string
	maxArticles int
	loop        bool
	intervalSec int
	dailyAt     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the delivery pipeline: fetch -> translate -> send",
	RunE: func(cmd *cobra.Command, args []string) error {
		if maxArticles > 0 {
			cfg.Fetcher.MaxArticles = maxArticles
		}
		if intervalSec > 0 {
			cfg.Schedule.IntervalSec = intervalSec
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		pipe, err := buildPipeline(db, m)
		if err != nil {
			return err
		}

		// Long-running modes expose the query API (and /metrics) alongside
		// the schedule; a one-shot run has nothing to scrape.
		if loop || dailyAt != "" {
			srv := server.New(db, server.Options{
				APIKey:      os.Getenv(cfg.Server.APIKeyEnv),
				CORSOrigins: cfg.Server.CORSOrigins,
				Registry:    registry,
				ReleaseMode: !verbose,
			})
			go func() {
				if err := srv.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
					log.Printf("Query API stopped: %v", err)
				}
			}()
		}

		job := func(ctx context.Context) error {
			stats, err := pipe.RunOnce(ctx)
			if err != nil {
				return err
			}
			log.Printf("Run complete: fetched=%d sent=%d failed=%d skipped=%d",
				stats.Fetched, stats.Sent, stats.Failed, stats.Skipped)
			return nil
		}

		ctx := context.Background()
		if dailyAt != "" {
			if loop {
				log.Println("--loop is ignored because --daily-at is set")
			}
			return schedule.RunDaily(ctx, dailyAt, job)
		}
		if loop {
			schedule.RunLoop(ctx, time.Duration(cfg.Schedule.IntervalSec)*time.Second, job)
			return nil
		}
		return job(ctx)
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Route without invoking any real channel")
	runCmd.Flags().StringVar(&sendChannel, "channel", "", "Force a single channel: telegram, webhook, or script")
	runCmd.Flags().IntVar(&maxArticles, "max-articles", 0, "Override max articles per run (1 enables single-article mode)")
	runCmd.Flags().BoolVar(&loop, "loop", false, "Keep running on an interval")
	runCmd.Flags().IntVar(&intervalSec, "interval-sec", 0, "Override loop interval in seconds")
	runCmd.Flags().StringVar(&dailyAt, "daily-at", "", "Run once a day at HH:MM (local time)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only query API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if servePort == 0 {
			servePort = cfg.Server.Port
		}

		// The pipeline runs in a separate process, so serve only exposes
		// runtime metrics; pipeline counters live on the run --loop port.
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		srv := server.New(db, server.Options{
			APIKey:      os.Getenv(cfg.Server.APIKeyEnv),
			CORSOrigins: cfg.Server.CORSOrigins,
			Registry:    registry,
			ReleaseMode: !verbose,
		})

		fmt.Printf("Starting query API at http://localhost:%d\n", servePort)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Run(fmt.Sprintf(":%d", servePort))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the API on (default from config)")
}

// --- wiring ---

func openDB() (*store.DB, error) {
	return store.Open(cfg.GetDBPath())
}

func buildPipeline(db *store.DB, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	fetcher, err := buildFetcher()
	if err != nil {
		return nil, err
	}

	translator, err := translate.New(translate.Options{
		Provider:   cfg.Translator.Provider,
		APIKeyEnv:  cfg.Translator.APIKeyEnv,
		Endpoint:   cfg.Translator.Endpoint,
		GlossaryID: cfg.Translator.GlossaryID,
		Formality:  cfg.Translator.Formality,
		Timeout:    time.Duration(cfg.Fetcher.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("building translator: %w", err)
	}

	router, target, err := buildRouter()
	if err != nil {
		return nil, err
	}
	if !dryRun && !router.Configured() {
		return nil, fmt.Errorf(
			"no sender configured: set %s + %s, %s, or delivery.script.path, or use --dry-run",
			cfg.Delivery.Telegram.BotTokenEnv, cfg.Delivery.Telegram.ChatIDEnv, cfg.Delivery.Webhook.URLEnv)
	}

	opts := pipeline.Options{
		Target:       target,
		MaxArticles:  cfg.Fetcher.MaxArticles,
		SourceLang:   cfg.Translator.SourceLang,
		TargetLang:   cfg.Translator.TargetLang,
		ContentLimit: cfg.Delivery.ContentLimit,
		PreviewDir:   cfg.GetPreviewDir(),
	}
	return pipeline.New(opts, fetcher, translator, router, db, m), nil
}

func buildFetcher() (fetch.Fetcher, error) {
	timeout := time.Duration(cfg.Fetcher.TimeoutSec) * time.Second
	switch cfg.Fetcher.Mode {
	case "", "homepage":
		return fetch.NewHomepageFetcher(cfg.Fetcher.HomepageURL, cfg.Fetcher.ArticlePathPrefix, cfg.Fetcher.UserAgent, timeout), nil
	case "rss":
		if cfg.Fetcher.FeedURL == "" {
			return nil, fmt.Errorf("fetcher.feed_url is required for rss mode")
		}
		return fetch.NewRSSFetcher(cfg.Fetcher.FeedURL, cfg.Fetcher.UserAgent, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported fetcher mode %q (available: homepage, rss)", cfg.Fetcher.Mode)
	}
}

// buildRouter assembles the primary/fallback pair from whichever channels
// are configured. --channel forces a single primary with no fallback;
// otherwise priority is telegram > webhook > script. Returns the delivery
// target alongside the router because Telegram addressing replaces the
// configured target with the chat id.
func buildRouter() (*send.Router, string, error) {
	timeout := time.Duration(cfg.Fetcher.TimeoutSec) * time.Second
	target := cfg.Delivery.Target

	var telegram, webhook, script send.Sender

	botToken := os.Getenv(cfg.Delivery.Telegram.BotTokenEnv)
	chatIDRaw := os.Getenv(cfg.Delivery.Telegram.ChatIDEnv)
	if botToken != "" && chatIDRaw != "" {
		chatID, err := strconv.ParseInt(chatIDRaw, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid %s value %q", cfg.Delivery.Telegram.ChatIDEnv, chatIDRaw)
		}
		s, err := send.NewTelegramSender(botToken, chatID, cfg.Delivery.Telegram.APIBase)
		if err != nil {
			return nil, "", fmt.Errorf("building telegram sender: %w", err)
		}
		telegram = s
	} else if (botToken != "" || chatIDRaw != "") && (sendChannel == "" || sendChannel == "telegram") {
		return nil, "", fmt.Errorf("telegram sender requires both %s and %s",
			cfg.Delivery.Telegram.BotTokenEnv, cfg.Delivery.Telegram.ChatIDEnv)
	}

	if webhookURL := os.Getenv(cfg.Delivery.Webhook.URLEnv); webhookURL != "" {
		s, err := send.NewWebhookSender(webhookURL, timeout)
		if err != nil {
			return nil, "", fmt.Errorf("building webhook sender: %w", err)
		}
		webhook = s
	}

	if cfg.Delivery.Script.Path != "" {
		s, err := send.NewScriptSender(cfg.Delivery.Script.Path, time.Duration(cfg.Delivery.Script.TimeoutSec)*time.Second)
		if err != nil {
			return nil, "", fmt.Errorf("building script sender: %w", err)
		}
		script = s
	}

	switch sendChannel {
	case "telegram":
		if telegram == nil {
			return nil, "", fmt.Errorf("--channel telegram requires %s and %s",
				cfg.Delivery.Telegram.BotTokenEnv, cfg.Delivery.Telegram.ChatIDEnv)
		}
		return send.NewRouter(telegram, nil, dryRun), chatIDRaw, nil
	case "webhook":
		if webhook == nil {
			return nil, "", fmt.Errorf("--channel webhook requires %s", cfg.Delivery.Webhook.URLEnv)
		}
		return send.NewRouter(webhook, nil, dryRun), target, nil
	case "script":
		if script == nil {
			return nil, "", fmt.Errorf("--channel script requires delivery.script.path")
		}
		return send.NewRouter(script, nil, dryRun), target, nil
	case "":
	default:
		return nil, "", fmt.Errorf("unsupported --channel %q (available: telegram, webhook, script)", sendChannel)
	}

	var primary, fallback send.Sender
	if telegram != nil {
		primary = telegram
		target = chatIDRaw
	}
	for _, candidate := range []send.Sender{webhook, script} {
		if candidate == nil {
			continue
		}
		if primary == nil {
			primary = candidate
		} else if fallback == nil {
			fallback = candidate
		}
	}
	return send.NewRouter(primary, fallback, dryRun), target, nil
}
