package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"meal-prep-companion/internal/analytics"
	"meal-prep-companion/internal/catalog"
	"meal-prep-companion/internal/config"
	"meal-prep-companion/internal/cooking"
	"meal-prep-companion/internal/database"
	"meal-prep-companion/internal/kvstore"
	"meal-prep-companion/internal/metrics"
	"meal-prep-companion/internal/notify"
	"meal-prep-companion/internal/reminder"
	"meal-prep-companion/internal/shopping"

	"go.uber.org/zap"
)

// App holds the application's components. Build one with New at startup and
// Close it at teardown.
type App struct {
	Progress  *cooking.Store
	Tracker   *analytics.Tracker
	Checklist *shopping.ChecklistStore
	Reminders *reminder.Engine
	Catalog   *catalog.Catalog

	cfg    *config.Config
	db     *database.DB
	kv     *kvstore.SQLStore
	logger *zap.Logger
}

// New opens the database and wires every component to it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, platform notify.Platform) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	kv := kvstore.NewSQLStore(db.SQL, kvstore.WithQuota(cfg.Database.QuotaBytes))

	return &App{
		Progress: cooking.NewStore(kv, logger),
		Tracker: analytics.NewTracker(ctx, kv, cat, logger,
			analytics.WithRetentionDays(cfg.Analytics.RetentionDays),
			analytics.WithLocation(loc)),
		Checklist: shopping.NewChecklistStore(kv, logger),
		Reminders: reminder.NewEngine(ctx, kv, platform, logger,
			reminder.WithLocation(loc),
			reminder.WithPollInterval(cfg.Reminder.PollInterval)),
		Catalog: cat,
		cfg:     cfg,
		db:      db,
		kv:      kv,
		logger:  logger,
	}, nil
}

// loadCatalog reads the plan catalog. A missing file yields an empty catalog.
func loadCatalog(path string, logger *zap.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.New(nil), nil
	}
	cat, err := catalog.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Plan catalog not found, nutrition and step counts unavailable", zap.String("path", path))
		return catalog.New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}
	return cat, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

// Health reports process health and record store usage.
func (a *App) Health(ctx context.Context) (metrics.SysHealth, error) {
	health := metrics.GetSysHealth(filepath.Dir(a.cfg.Database.Path))
	usage, err := metrics.GetStorageUsage(ctx, a.kv)
	if err != nil {
		return health, fmt.Errorf("failed to measure storage: %w", err)
	}
	health.Storage = usage
	return health, nil
}

// DismissInstallPrompt remembers that the user declined the install prompt.
func (a *App) DismissInstallPrompt(ctx context.Context) error {
	if err := a.kv.Set(ctx, kvstore.InstallDismissedKey, []byte("true")); err != nil {
		return fmt.Errorf("failed to save install prompt state: %w", err)
	}
	return nil
}

// InstallPromptDismissed reports whether the install prompt was dismissed.
func (a *App) InstallPromptDismissed(ctx context.Context) bool {
	v, ok, err := a.kv.Get(ctx, kvstore.InstallDismissedKey)
	if err != nil {
		a.logger.Warn("Failed to read install prompt state", zap.Error(err))
		return false
	}
	return ok && string(v) == "true"
}
