// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/clock"
	"github.com/isaacgw/parkrun-sync/internal/config"
	"github.com/isaacgw/parkrun-sync/internal/creds"
	"github.com/isaacgw/parkrun-sync/internal/fetch"
	"github.com/isaacgw/parkrun-sync/internal/ledger"
	"github.com/isaacgw/parkrun-sync/internal/logging"
	"github.com/isaacgw/parkrun-sync/internal/metrics"
	"github.com/isaacgw/parkrun-sync/internal/notify"
	"github.com/isaacgw/parkrun-sync/internal/storage"
	"github.com/isaacgw/parkrun-sync/internal/storage/gcs"
	"github.com/isaacgw/parkrun-sync/internal/storage/local"
	"github.com/isaacgw/parkrun-sync/internal/storage/memory"
	"github.com/isaacgw/parkrun-sync/internal/strava"
	syncer "github.com/isaacgw/parkrun-sync/internal/sync"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    storage.Provider
	Notifier notify.Publisher
	Runner   *syncer.Runner
}

// New creates and initializes an App from the configuration file at
// path. It fails fast if any critical service cannot be initialized.
func New(ctx context.Context, path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	metrics.Init()

	var clk clock.Clock
	if cfg.Clock.SpoofTime {
		fixed, err := clock.ParseSpoofed(cfg.Clock.SpoofedTime)
		if err != nil {
			return nil, fmt.Errorf("parse spoofed time: %w", err)
		}
		logger.Warn("Clock is spoofed", zap.Time("now", fixed.Now()))
		clk = fixed
	} else {
		clk = clock.NewSystem()
	}

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize notifier: %w", err)
	}

	credStore, err := creds.NewStore(store, cfg.Creds.Object, cfg.Creds.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("initialize credential store: %w", err)
	}

	runner := syncer.NewRunner(
		&cfg,
		store,
		fetch.New(cfg.Scraper, logger),
		ledger.New(store, cfg.Ledger.Object, cfg.Ledger.MaxEntries, logger),
		credStore,
		strava.NewClient(cfg.Strava, clk, logger),
		notifier,
		clk,
		logger,
	)

	logger.Info("Application services initialized",
		zap.String("storage", cfg.Storage.Backend))

	return &App{
		Config:   &cfg,
		Logger:   logger,
		Store:    store,
		Notifier: notifier,
		Runner:   runner,
	}, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Provider, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		logger.Info("Using GCS storage backend", zap.String("bucket", cfg.Storage.GCSBucket))
		return gcs.New(ctx, cfg.Storage.GCSBucket)
	case "local":
		logger.Info("Using local storage backend", zap.String("dir", cfg.Storage.LocalDir))
		return local.New(cfg.Storage.LocalDir)
	case "memory":
		logger.Info("Using in-memory storage backend. Nothing will persist.")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		logger.Info("Pub/Sub not configured. Completion events will not be published.")
		return notify.NoOp{}, nil
	}
	logger.Info("Connecting to GCP Pub/Sub", zap.String("topic", cfg.PubSub.TopicName))
	return notify.NewPubSub(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName, logger)
}

// Close gracefully shuts down the App's services. Called by a Cobra hook
// after the command finishes.
func (a *App) Close() {
	a.Logger.Info("Shutting down application services...")
	if err := a.Notifier.Close(); err != nil {
		a.Logger.Warn("Error closing notifier", zap.Error(err))
	}
	if closer, ok := a.Store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("Error closing storage client", zap.Error(err))
		}
	}
	// Best-effort: logging itself might be failing at this point.
	_ = a.Logger.Sync()
}
