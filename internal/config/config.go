package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobmill ingester.
type Config struct {
	RunInterval  time.Duration
	Database     string
	Sources      []SourceConfig
	Fetch        FetchConfig
	Notification NotificationConfig
}

// SourceConfig describes a single upstream source: where to fetch from and
// which adapter understands its payload.
type SourceConfig struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"` // remotive, arbeitnow, himalayas, kalibrr
	URL           string `yaml:"url"`
	CareerPageURL string `yaml:"career_page_url"`
	CompanyName   string `yaml:"company_name"` // HTML sources: company is configured, not parsed
	Location      string `yaml:"location"`     // HTML sources: static location
	Enabled       bool   `yaml:"enabled"`
}

// FetchConfig controls the fetch layer: timeouts, retries, and per-host politeness.
type FetchConfig struct {
	Timeout        time.Duration // per-request timeout
	MaxRetries     int           // additional attempts after the first failure
	RetryBaseDelay time.Duration // delay before the first retry, doubled each time
	PerHostRPS     float64       // sustained requests per second per upstream host
	Burst          int           // rate limiter burst per host
	Concurrency    int           // bounded worker pool width across sources
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	RunInterval  string             `yaml:"run_interval"`
	Database     string             `yaml:"database"`
	Sources      []SourceConfig     `yaml:"sources"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawFetchConfig struct {
	Timeout        string  `yaml:"timeout"`
	MaxRetries     *int    `yaml:"max_retries"`
	RetryBaseDelay string  `yaml:"retry_base_delay"`
	PerHostRPS     float64 `yaml:"per_host_rps"`
	Burst          int     `yaml:"burst"`
	Concurrency    int     `yaml:"concurrency"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := 6 * time.Hour // default: two runs per working day is plenty for job boards
	if raw.RunInterval != "" {
		interval, err = time.ParseDuration(raw.RunInterval)
		if err != nil {
			return nil, fmt.Errorf("parse run_interval %q: %w", raw.RunInterval, err)
		}
	}

	timeout := 30 * time.Second
	if raw.Fetch.Timeout != "" {
		timeout, err = time.ParseDuration(raw.Fetch.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse fetch.timeout %q: %w", raw.Fetch.Timeout, err)
		}
	}

	retryBase := 5 * time.Second
	if raw.Fetch.RetryBaseDelay != "" {
		retryBase, err = time.ParseDuration(raw.Fetch.RetryBaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse fetch.retry_base_delay %q: %w", raw.Fetch.RetryBaseDelay, err)
		}
	}

	maxRetries := 2
	if raw.Fetch.MaxRetries != nil {
		maxRetries = *raw.Fetch.MaxRetries
	}

	rps := raw.Fetch.PerHostRPS
	if rps <= 0 {
		rps = 1.0
	}
	burst := raw.Fetch.Burst
	if burst <= 0 {
		burst = 1
	}
	concurrency := raw.Fetch.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	database := raw.Database
	if database == "" {
		database = "jobs.db"
	}

	cfg := &Config{
		RunInterval: interval,
		Database:    database,
		Sources:     raw.Sources,
		Fetch: FetchConfig{
			Timeout:        timeout,
			MaxRetries:     maxRetries,
			RetryBaseDelay: retryBase,
			PerHostRPS:     rps,
			Burst:          burst,
			Concurrency:    concurrency,
		},
		Notification: raw.Notification,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.RunInterval <= 0 {
		return fmt.Errorf("run_interval must be positive, got %v", cfg.RunInterval)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", cfg.Fetch.MaxRetries)
	}

	enabled := 0
	for i, s := range cfg.Sources {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		if strings.TrimSpace(s.Kind) == "" {
			return fmt.Errorf("source %q: kind is required", s.Name)
		}
		// An unknown kind is not rejected here: the coordinator reports it
		// as a per-source configuration failure and skips that source.
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	return nil
}
