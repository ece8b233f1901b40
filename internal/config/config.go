package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve on hosts without zoneinfo

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobtrack/internal/classify"
	"github.com/amishk599/jobtrack/internal/source"
	"github.com/amishk599/jobtrack/internal/store"
)

// Config is the root configuration for jobtrack.
type Config struct {
	Schedule     string
	Timezone     *time.Location
	Concurrency  int
	Database     DatabaseConfig
	Sources      []SourceConfig
	Sweep        SweepConfig
	Classifier   ClassifierConfig
	AI           AIConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	API          APIConfig
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver store.Dialect
	DSN    string // file path for sqlite, connection string for postgres
}

// SourceConfig describes one job board feed.
type SourceConfig struct {
	Name    string      `yaml:"name"`
	Kind    source.Kind `yaml:"kind"`
	URL     string      `yaml:"url"` // http(s) URL or local file
	Enabled bool        `yaml:"enabled"`
}

// SweepConfig controls end-of-cycle deactivation.
type SweepConfig struct {
	SkipFailedSources bool `yaml:"skip_failed_sources"`
}

// ClassifierConfig picks how new jobs are categorised.
type ClassifierConfig struct {
	Type            string `yaml:"type"` // "keyword", "llm" or "none"
	DefaultCategory string `yaml:"default_category"`
}

// AIConfig configures the OpenAI-compatible endpoint used by the llm classifier.
type AIConfig struct {
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// NotificationConfig controls how new jobs are announced after a cycle.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "redis"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	RedisURL   string `yaml:"redis_url"`   // required if type is "redis"
	Channel    string `yaml:"channel"`     // redis pub/sub channel
}

// RateLimitConfig spaces out requests to the same feed host.
type RateLimitConfig struct {
	MinDelay      time.Duration
	HostOverrides map[string]time.Duration // keyed by host
}

// MinDelayFor returns the configured delay for host, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(host string) time.Duration {
	if d, ok := r.HostOverrides[host]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls retries of failed feed reads.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// EnabledSources returns the sources with enabled set.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

const (
	defaultSchedule      = "0 12 * * *"
	defaultTimezone      = "Pacific/Auckland"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultDSN           = "jobtrack.db"
	defaultChannel       = "jobtrack:new-jobs"
	defaultListenAddr    = ":8080"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Timezone     string             `yaml:"timezone"`
	Concurrency  int                `yaml:"concurrency"`
	Database     rawDatabaseConfig  `yaml:"database"`
	Sources      []SourceConfig     `yaml:"sources"`
	Sweep        SweepConfig        `yaml:"sweep"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	AI           rawAIConfig        `yaml:"ai"`
	Notification NotificationConfig `yaml:"notification"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Retry        rawRetryConfig     `yaml:"retry"`
	API          APIConfig          `yaml:"api"`
}

type rawDatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type rawAIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay      string            `yaml:"min_delay"`
	HostOverrides map[string]string `yaml:"host_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	tzName := raw.Timezone
	if tzName == "" {
		tzName = defaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("parse timezone %q: %w", tzName, err)
	}

	driver, err := store.ParseDialect(raw.Database.Driver)
	if err != nil {
		return nil, fmt.Errorf("parse database.driver: %w", err)
	}
	dsn := raw.Database.DSN
	if dsn == "" && driver == store.SQLite {
		dsn = defaultDSN
	}

	for i, s := range raw.Sources {
		kind, err := source.ParseKind(string(s.Kind))
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		raw.Sources[i].Kind = kind
		if raw.Sources[i].Name == "" {
			raw.Sources[i].Name = string(kind)
		}
	}

	rateLimitDelay := 2 * time.Second
	if raw.RateLimit.MinDelay != "" {
		rateLimitDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}

	hostOverrides := make(map[string]time.Duration)
	for host, v := range raw.RateLimit.HostOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.host_overrides[%q]: %w", host, err)
		}
		hostOverrides[host] = d
	}

	maxRetries := 2
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}
	baseDelay := 5 * time.Second
	if raw.Retry.BaseDelay != "" {
		baseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}

	aiTimeout := 30 * time.Second
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	cfg := &Config{
		Schedule:    orDefault(raw.Schedule, defaultSchedule),
		Timezone:    loc,
		Concurrency: raw.Concurrency,
		Database:    DatabaseConfig{Driver: driver, DSN: dsn},
		Sources:     raw.Sources,
		Sweep:       raw.Sweep,
		Classifier: ClassifierConfig{
			Type:            strings.ToLower(orDefault(raw.Classifier.Type, "keyword")),
			DefaultCategory: orDefault(raw.Classifier.DefaultCategory, classify.DefaultCategory),
		},
		AI: AIConfig{
			BaseURL: orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Notification: NotificationConfig{
			Type:       strings.ToLower(orDefault(raw.Notification.Type, "log")),
			WebhookURL: raw.Notification.WebhookURL,
			RedisURL:   raw.Notification.RedisURL,
			Channel:    orDefault(raw.Notification.Channel, defaultChannel),
		},
		RateLimit: RateLimitConfig{
			MinDelay:      rateLimitDelay,
			HostOverrides: hostOverrides,
		},
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  baseDelay,
		},
		API: APIConfig{ListenAddr: orDefault(raw.API.ListenAddr, defaultListenAddr)},
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required for postgres")
	}

	names := make(map[string]bool)
	for _, s := range cfg.Sources {
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
		if s.Enabled && strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
	}
	if len(cfg.EnabledSources()) == 0 {
		return errors.New("at least one source must be enabled")
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	switch cfg.Classifier.Type {
	case "keyword", "none":
	case "llm":
		if cfg.AI.APIKey == "" {
			return errors.New("ai.api_key is required when classifier.type is \"llm\"")
		}
		if cfg.AI.Model == "" {
			return errors.New("ai.model is required when classifier.type is \"llm\"")
		}
	default:
		return fmt.Errorf("classifier.type must be keyword, llm or none, got %q", cfg.Classifier.Type)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return errors.New("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return errors.New("notification.webhook_url must start with https://hooks.slack.com/")
		}
	case "redis":
		if cfg.Notification.RedisURL == "" {
			return errors.New("notification.redis_url is required when type is \"redis\"")
		}
	default:
		return fmt.Errorf("notification.type must be log, slack or redis, got %q", cfg.Notification.Type)
	}

	return nil
}
