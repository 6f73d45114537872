package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobscout/internal/model"
)

// Config is the root configuration for jobscout.
type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	Pipeline     PipelineConfig
	Sources      map[model.Source]SourceConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	Tags         []string // keyword vocabulary; empty uses the built-in list
	Notification NotificationConfig
	Accounts     AccountsConfig
	Watches      []WatchConfig
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// StoreConfig selects the listing store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "postgres", "redis" or "memory"
	Path   string `yaml:"path"`   // sqlite database file
	URL    string `yaml:"url"`    // postgres or redis connection URL
	Prefix string `yaml:"prefix"` // redis key prefix
}

// PipelineConfig bounds the external calls of a single search.
type PipelineConfig struct {
	FetchTimeout  time.Duration
	NotifyTimeout time.Duration
}

// SourceConfig tunes one source adapter.
type SourceConfig struct {
	Enabled   bool
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// RateLimitConfig controls source-level rate limiting.
type RateLimitConfig struct {
	MinDelay        time.Duration                  // minimum gap between requests to the same source
	SourceOverrides map[model.Source]time.Duration // per-source overrides
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source model.Source) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls retries of transient fetch failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NotificationConfig controls which sender delivers notifications and its settings.
type NotificationConfig struct {
	Type       string // "log", "slack" or "smtp"
	WebhookURL string // required if type is "slack"
	SMTP       SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      string // "mandatory", "opportunistic" or "none"
	Timeout  time.Duration
}

// AccountsConfig selects where user contact addresses come from.
type AccountsConfig struct {
	Type  string            `yaml:"type"`  // "static" or "mongo"
	Users map[string]string `yaml:"users"` // static: user -> address
	Mongo MongoConfig       `yaml:"mongo"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// WatchConfig is a saved search re-run on a cron schedule.
type WatchConfig struct {
	Name     string       `yaml:"name"`
	Term     string       `yaml:"term"`
	Source   model.Source `yaml:"source"`
	User     string       `yaml:"user"`
	Schedule string       `yaml:"schedule"`
}

const (
	defaultAddr   = ":8080"
	defaultDBPath = "jobscout.db"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server       rawServerConfig            `yaml:"server"`
	Store        StoreConfig                `yaml:"store"`
	Pipeline     rawPipelineConfig          `yaml:"pipeline"`
	Sources      map[string]rawSourceConfig `yaml:"sources"`
	RateLimit    rawRateLimitConfig         `yaml:"rate_limit"`
	Retry        rawRetryConfig             `yaml:"retry"`
	Tags         []string                   `yaml:"tags"`
	Notification rawNotificationConfig      `yaml:"notification"`
	Accounts     AccountsConfig             `yaml:"accounts"`
	Watches      []WatchConfig              `yaml:"watches"`
}

type rawServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

type rawPipelineConfig struct {
	FetchTimeout  string `yaml:"fetch_timeout"`
	NotifyTimeout string `yaml:"notify_timeout"`
}

type rawSourceConfig struct {
	Enabled   *bool  `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawNotificationConfig struct {
	Type       string        `yaml:"type"`
	WebhookURL string        `yaml:"webhook_url"`
	SMTP       rawSMTPConfig `yaml:"smtp"`
}

type rawSMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	TLS      string `yaml:"tls"`
	Timeout  string `yaml:"timeout"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. Environment variables are expanded first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           raw.Server.Addr,
			AllowedOrigins: raw.Server.AllowedOrigins,
		},
		Store:    raw.Store,
		Tags:     raw.Tags,
		Accounts: raw.Accounts,
		Watches:  raw.Watches,
		Sources:  make(map[model.Source]SourceConfig, len(model.KnownSources)),
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = defaultDBPath
	}
	if cfg.Accounts.Type == "" {
		cfg.Accounts.Type = "static"
	}

	var err error
	if cfg.Server.ShutdownTimeout, err = duration("server.shutdown_timeout", raw.Server.ShutdownTimeout, 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Pipeline.FetchTimeout, err = duration("pipeline.fetch_timeout", raw.Pipeline.FetchTimeout, 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Pipeline.NotifyTimeout, err = duration("pipeline.notify_timeout", raw.Pipeline.NotifyTimeout, 30*time.Second); err != nil {
		return nil, err
	}

	// Every known source is on unless config says otherwise.
	for _, s := range model.KnownSources {
		cfg.Sources[s] = SourceConfig{Enabled: true}
	}
	for name, rs := range raw.Sources {
		source := model.Source(strings.ToLower(name))
		sc := SourceConfig{Enabled: true, BaseURL: rs.BaseURL, UserAgent: rs.UserAgent}
		if rs.Enabled != nil {
			sc.Enabled = *rs.Enabled
		}
		if sc.Timeout, err = duration(fmt.Sprintf("sources.%s.timeout", name), rs.Timeout, 0); err != nil {
			return nil, err
		}
		cfg.Sources[source] = sc
	}

	if cfg.RateLimit.MinDelay, err = duration("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second); err != nil {
		return nil, err
	}
	cfg.RateLimit.SourceOverrides = make(map[model.Source]time.Duration)
	for source, v := range raw.RateLimit.SourceOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.source_overrides[%q]: %w", source, err)
		}
		cfg.RateLimit.SourceOverrides[model.Source(strings.ToLower(source))] = d
	}

	cfg.Retry.MaxRetries = 3
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if cfg.Retry.BaseDelay, err = duration("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second); err != nil {
		return nil, err
	}

	cfg.Notification = NotificationConfig{
		Type:       raw.Notification.Type,
		WebhookURL: raw.Notification.WebhookURL,
		SMTP: SMTPConfig{
			Host:     raw.Notification.SMTP.Host,
			Port:     raw.Notification.SMTP.Port,
			Username: raw.Notification.SMTP.Username,
			Password: raw.Notification.SMTP.Password,
			From:     raw.Notification.SMTP.From,
			TLS:      raw.Notification.SMTP.TLS,
		},
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.Notification.SMTP.Timeout, err = duration("notification.smtp.timeout", raw.Notification.SMTP.Timeout, 15*time.Second); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func duration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func isKnownSource(s model.Source) bool {
	return slices.Contains(model.KnownSources, s)
}

// EnabledSources returns the enabled sources in a stable order.
func (c *Config) EnabledSources() []model.Source {
	var out []model.Source
	for _, s := range model.KnownSources {
		if c.Sources[s].Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	for source := range cfg.Sources {
		if !isKnownSource(source) {
			return fmt.Errorf("sources: unknown source %q", source)
		}
	}
	if len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	for source := range cfg.RateLimit.SourceOverrides {
		if !isKnownSource(source) {
			return fmt.Errorf("rate_limit.source_overrides: unknown source %q", source)
		}
	}

	if cfg.Pipeline.FetchTimeout <= 0 {
		return fmt.Errorf("pipeline.fetch_timeout must be positive, got %v", cfg.Pipeline.FetchTimeout)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	switch cfg.Store.Driver {
	case "sqlite", "memory":
	case "postgres", "redis":
		if cfg.Store.URL == "" {
			return fmt.Errorf("store.url is required when driver is %q", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be one of sqlite, postgres, redis, memory; got %q", cfg.Store.Driver)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	case "smtp":
		if cfg.Notification.SMTP.Host == "" || cfg.Notification.SMTP.From == "" {
			return fmt.Errorf("notification.smtp.host and notification.smtp.from are required when type is \"smtp\"")
		}
	default:
		return fmt.Errorf("notification.type must be one of log, slack, smtp; got %q", cfg.Notification.Type)
	}

	switch cfg.Accounts.Type {
	case "static":
	case "mongo":
		if cfg.Accounts.Mongo.URI == "" || cfg.Accounts.Mongo.Database == "" {
			return fmt.Errorf("accounts.mongo.uri and accounts.mongo.database are required when type is \"mongo\"")
		}
	default:
		return fmt.Errorf("accounts.type must be static or mongo; got %q", cfg.Accounts.Type)
	}

	names := make(map[string]bool, len(cfg.Watches))
	for i, w := range cfg.Watches {
		if w.Name == "" {
			return fmt.Errorf("watches[%d]: name is required", i)
		}
		if names[w.Name] {
			return fmt.Errorf("watches[%d]: duplicate name %q", i, w.Name)
		}
		names[w.Name] = true
		if strings.TrimSpace(w.Term) == "" {
			return fmt.Errorf("watch %q: term is required", w.Name)
		}
		if !cfg.Sources[w.Source].Enabled {
			return fmt.Errorf("watch %q: source %q is unknown or disabled", w.Name, w.Source)
		}
		if w.Schedule == "" {
			return fmt.Errorf("watch %q: schedule is required", w.Name)
		}
	}

	return nil
}
