package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobtrack/internal/ai"
	"github.com/amishk599/jobtrack/internal/classify"
	"github.com/amishk599/jobtrack/internal/config"
	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/notifier"
	"github.com/amishk599/jobtrack/internal/ratelimit"
	"github.com/amishk599/jobtrack/internal/retry"
	"github.com/amishk599/jobtrack/internal/source"
	"github.com/amishk599/jobtrack/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobtrack",
	Short: "Track the NZ IT job market across boards",
	Long:  "jobtrack ingests scraped job board feeds, deduplicates postings into a lifecycle table and reports what is new, still open and gone.",
	// Default to `start` so that `jobtrack` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBTRACK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBTRACK_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBTRACK_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// openStore opens the configured database. ephemeral swaps it for an
// in-memory SQLite store that is thrown away on exit.
func openStore(cfg *config.Config, ephemeral bool) (*store.SQLStore, error) {
	opts := []store.Option{store.WithLocation(cfg.Timezone)}
	if ephemeral {
		return store.NewSQLiteStore(":memory:", opts...)
	}
	return store.Open(cfg.Database.Driver, cfg.Database.DSN, opts...)
}

// setupNotifier builds the configured notifier. The returned func releases
// any connection it holds.
func setupNotifier(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Notifier, func(), error) {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger), func() {}, nil
	case "redis":
		client, err := notifier.NewRedisClient(ctx, cfg.Notification.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis notifier", "channel", cfg.Notification.Channel)
		return notifier.NewRedisNotifier(client, cfg.Notification.Channel, logger), func() { client.Close() }, nil
	default:
		return notifier.NewLogNotifier(logger), func() {}, nil
	}
}

// setupClassifier returns the classifier for new jobs, or nil when
// classification is disabled. Anything returned is total.
func setupClassifier(cfg *config.Config, logger *slog.Logger) model.Classifier {
	keyword := classify.NewKeyword()
	switch cfg.Classifier.Type {
	case "none":
		logger.Info("classification disabled")
		return nil
	case "llm":
		provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
		llm := ai.NewLLMClassifier(provider, ai.ClassifyTemplate, classify.Categories, keyword, logger)
		logger.Info("using llm classifier", "model", cfg.AI.Model)
		return classify.Guard(llm, cfg.Classifier.DefaultCategory, logger)
	default:
		return classify.Guard(keyword, cfg.Classifier.DefaultCategory, logger)
	}
}

// buildSources wraps each enabled feed with host rate limiting and retries.
// Sources on the same host share a limiter.
func buildSources(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.Scraper {
	limiters := make(map[time.Duration]*ratelimit.HostLimiter)
	policy := retry.Policy{MaxRetries: cfg.Retry.MaxRetries, BaseDelay: cfg.Retry.BaseDelay}

	var sources []model.Scraper
	for _, sc := range cfg.EnabledSources() {
		feed := source.NewFeedSource(sc.Name, sc.Kind, sc.URL, httpClient)
		host := feed.Host()

		delay := cfg.RateLimit.MinDelayFor(host)
		limiter, ok := limiters[delay]
		if !ok {
			limiter = ratelimit.NewHostLimiter(delay)
			limiters[delay] = limiter
		}

		var s model.Scraper = ratelimit.NewScraper(feed, limiter, host)
		s = retry.NewScraper(s, policy, logger)
		sources = append(sources, s)
		logger.Info("registered source", "name", sc.Name, "kind", sc.Kind, "host", host, "min_delay", delay.String())
	}
	return sources
}

// exitf logs msg and exits non-zero, the way every command reports a fatal
// setup error.
func exitf(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func mustLoad(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		exitf(logger, "failed to load config", err)
	}
	return cfg
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
