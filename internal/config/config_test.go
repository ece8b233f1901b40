package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobtrack/internal/source"
	"github.com/amishk599/jobtrack/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
sources:
  - name: seek-akl
    kind: seek
    url: https://feeds.example.com/seek.json
    enabled: true
`

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
schedule: "30 6 * * *"
timezone: UTC
concurrency: 3
database:
  driver: sqlite
  dsn: /var/lib/jobtrack/jobs.db
sources:
  - name: seek-akl
    kind: SEEK
    url: https://feeds.example.com/seek.json
    enabled: true
  - kind: indeed
    url: ./feeds/indeed.json
    enabled: false
sweep:
  skip_failed_sources: true
rate_limit:
  min_delay: 3s
  host_overrides:
    feeds.example.com: 10s
retry:
  max_retries: 0
  base_delay: 1s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule != "30 6 * * *" || cfg.Timezone != time.UTC || cfg.Concurrency != 3 {
		t.Errorf("schedule/timezone/concurrency = %q %v %d", cfg.Schedule, cfg.Timezone, cfg.Concurrency)
	}
	if cfg.Database.Driver != store.SQLite || cfg.Database.DSN != "/var/lib/jobtrack/jobs.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0].Kind != source.KindSeek {
		t.Fatalf("Sources = %+v", cfg.Sources)
	}
	if cfg.Sources[1].Name != "indeed" {
		t.Errorf("unnamed source should default to its kind, got %q", cfg.Sources[1].Name)
	}
	if got := cfg.EnabledSources(); len(got) != 1 || got[0].Name != "seek-akl" {
		t.Errorf("EnabledSources = %+v", got)
	}
	if !cfg.Sweep.SkipFailedSources {
		t.Error("SkipFailedSources should be true")
	}
	if cfg.RateLimit.MinDelayFor("feeds.example.com") != 10*time.Second || cfg.RateLimit.MinDelayFor("other") != 3*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Retry.MaxRetries != 0 || cfg.Retry.BaseDelay != time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule != defaultSchedule {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.Timezone.String() != "Pacific/Auckland" {
		t.Errorf("Timezone = %v", cfg.Timezone)
	}
	if cfg.Concurrency != 1 || cfg.Database.DSN != defaultDSN {
		t.Errorf("Concurrency = %d, DSN = %q", cfg.Concurrency, cfg.Database.DSN)
	}
	if cfg.Classifier.Type != "keyword" || cfg.Classifier.DefaultCategory != "Other IT roles" {
		t.Errorf("Classifier = %+v", cfg.Classifier)
	}
	if cfg.Notification.Type != "log" || cfg.Notification.Channel != defaultChannel {
		t.Errorf("Notification = %+v", cfg.Notification)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.BaseDelay != 5*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.AI.BaseURL != defaultOpenAIBaseURL || cfg.API.ListenAddr != defaultListenAddr {
		t.Errorf("AI.BaseURL = %q, API = %+v", cfg.AI.BaseURL, cfg.API)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("JOBTRACK_TEST_KEY", "sk-test")
	cfg, err := Load(writeConfig(t, minimal+`
classifier:
  type: llm
ai:
  model: gpt-4o-mini
  api_key: ${JOBTRACK_TEST_KEY}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.AI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml")); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "sources: [broken")); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad schedule", minimal + "schedule: every day\n", "schedule"},
		{"bad timezone", minimal + "timezone: Mars/Olympus\n", "timezone"},
		{"bad driver", minimal + "database:\n  driver: oracle\n", "database.driver"},
		{"postgres without dsn", minimal + "database:\n  driver: postgres\n", "database.dsn"},
		{"unknown kind", "sources:\n  - kind: monster\n    url: x\n    enabled: true\n", "sources[0]"},
		{"no enabled source", "sources:\n  - kind: seek\n    url: x\n    enabled: false\n", "at least one source"},
		{"missing url", "sources:\n  - kind: seek\n    enabled: true\n", "url is required"},
		{"duplicate names", minimal + "  - name: seek-akl\n    kind: seek\n    url: y\n    enabled: true\n", "duplicate"},
		{"llm without key", minimal + "classifier:\n  type: llm\nai:\n  model: m\n", "ai.api_key"},
		{"unknown classifier", minimal + "classifier:\n  type: magic\n", "classifier.type"},
		{"slack without webhook", minimal + "notification:\n  type: slack\n", "webhook_url is required"},
		{"slack bad webhook", minimal + "notification:\n  type: slack\n  webhook_url: https://example.com/x\n", "hooks.slack.com"},
		{"redis without url", minimal + "notification:\n  type: redis\n", "redis_url"},
		{"bad duration", minimal + "retry:\n  base_delay: soon\n", "retry.base_delay"},
		{"negative retries", minimal + "retry:\n  max_retries: -1\n", "max_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("config.example.yaml: %v", err)
	}
	if len(cfg.EnabledSources()) != 3 {
		t.Errorf("enabled sources = %d, want 3", len(cfg.EnabledSources()))
	}
	if cfg.Classifier.DefaultCategory != "Other IT roles" {
		t.Errorf("default category = %q", cfg.Classifier.DefaultCategory)
	}
}
