package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/account"
	"github.com/amishk599/jobscout/internal/adapter"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/normalize"
	"github.com/amishk599/jobscout/internal/notifier"
	"github.com/amishk599/jobscout/internal/pipeline"
	"github.com/amishk599/jobscout/internal/ratelimit"
	"github.com/amishk599/jobscout/internal/retry"
	"github.com/amishk599/jobscout/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Job search radar across public job boards",
	Long: "jobscout searches public job boards for a term, remembers every listing it has seen " +
		"and tells you about the new ones.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
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

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (model.ListingStore, error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory store, nothing will persist")
		return store.NewMemoryStore(), nil
	case "postgres":
		logger.Info("using postgres store")
		return store.NewPostgresStore(ctx, cfg.URL)
	case "redis":
		logger.Info("using redis store", "prefix", cfg.Prefix)
		return store.NewRedisStore(ctx, cfg.URL, cfg.Prefix)
	default:
		logger.Info("using sqlite store", "path", cfg.Path)
		return store.NewSQLiteStore(cfg.Path)
	}
}

// buildRegistry wires one adapter per enabled source. Each adapter is rate
// limited per source and retried on transient failures; every retry attempt
// waits on the limiter again.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*adapter.Registry, error) {
	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelay, 1)
	registry := adapter.NewRegistry()

	for _, source := range cfg.EnabledSources() {
		sc := cfg.Sources[source]
		a, err := adapter.New(source, adapter.Options{
			BaseURL:   sc.BaseURL,
			Timeout:   sc.Timeout,
			UserAgent: sc.UserAgent,
		}, logger)
		if err != nil {
			return nil, err
		}
		if _, ok := cfg.RateLimit.SourceOverrides[source]; ok {
			limiter.SetSourceLimit(source, cfg.RateLimit.MinDelayFor(source), 1)
		}

		var wrapped model.SourceAdapter = ratelimit.NewAdapter(a, limiter)
		if cfg.Retry.MaxRetries > 0 {
			wrapped = retry.NewAdapter(wrapped, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		}
		registry.Register(wrapped)
		logger.Debug("registered source", "source", source, "min_delay", cfg.RateLimit.MinDelayFor(source))
	}
	return registry, nil
}

func setupSender(cfg config.NotificationConfig, logger *slog.Logger) (model.Sender, error) {
	switch cfg.Type {
	case "slack":
		logger.Info("using slack sender")
		return notifier.NewSlackSender(cfg.WebhookURL, &http.Client{Timeout: 30 * time.Second}, logger), nil
	case "smtp":
		logger.Info("using smtp sender", "host", cfg.SMTP.Host)
		return notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			TLS:      cfg.SMTP.TLS,
			Timeout:  cfg.SMTP.Timeout,
		}, logger)
	default:
		return notifier.NewLogSender(logger), nil
	}
}

// setupResolver returns the contact resolver and a function releasing it.
func setupResolver(ctx context.Context, cfg config.AccountsConfig, logger *slog.Logger) (model.ContactResolver, func(), error) {
	if cfg.Type == "mongo" {
		r, err := account.NewMongoResolver(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("resolving contacts from mongo", "database", cfg.Mongo.Database)
		return r, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.Close(closeCtx); err != nil {
				logger.Warn("closing mongo resolver", "error", err)
			}
		}, nil
	}
	return account.NewStaticResolver(cfg.Users), func() {}, nil
}

// app is everything a command needs to run searches.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    model.ListingStore
	registry *adapter.Registry
	pipeline *pipeline.Pipeline
	closers  []func()
}

// Close waits for pending notifications, then releases resources in reverse order.
func (a *app) Close() {
	if a.pipeline != nil {
		a.pipeline.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type appOptions struct {
	// dryRun swaps the configured store for an in-memory one.
	dryRun bool
}

// setupApp loads config and wires store, adapters, notifier and pipeline.
func setupApp(ctx context.Context, opts appOptions) (*app, error) {
	logger := setupLogger(debug)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("config loaded",
		"sources", cfg.EnabledSources(),
		"store", cfg.Store.Driver,
		"notification", cfg.Notification.Type,
		"watches", len(cfg.Watches),
	)

	a := &app{cfg: cfg, logger: logger}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	storeCfg := cfg.Store
	if opts.dryRun {
		logger.Info("dry-run mode: listings will not be persisted")
		storeCfg.Driver = "memory"
	}
	st, err := openStore(ctx, storeCfg, logger)
	if err != nil {
		return fail(fmt.Errorf("open store: %w", err))
	}
	a.store = st
	a.closers = append(a.closers, func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store", "error", err)
		}
	})

	if a.registry, err = buildRegistry(cfg, logger); err != nil {
		return fail(err)
	}

	sender, err := setupSender(cfg.Notification, logger)
	if err != nil {
		return fail(fmt.Errorf("setup notifier: %w", err))
	}
	resolver, closeResolver, err := setupResolver(ctx, cfg.Accounts, logger)
	if err != nil {
		return fail(fmt.Errorf("setup accounts: %w", err))
	}
	a.closers = append(a.closers, closeResolver)

	tags := normalize.NewTagExtractor(cfg.Tags)
	logger.Debug("tag vocabulary", "tags", tags.Vocabulary())
	normalizer := normalize.NewNormalizer(tags, nil)
	a.pipeline = pipeline.New(
		a.registry,
		normalizer,
		st,
		notifier.NewSummaryNotifier(resolver, sender, logger),
		pipeline.Config{
			FetchTimeout:  cfg.Pipeline.FetchTimeout,
			NotifyTimeout: cfg.Pipeline.NotifyTimeout,
		},
		logger,
	)
	return a, nil
}
