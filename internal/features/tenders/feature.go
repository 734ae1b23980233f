package tenders

import (
	"context"
	"fmt"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/adapters"
	"tenderwatch/internal/features/tenders/handlers"
	"tenderwatch/internal/features/tenders/migrations"
	"tenderwatch/internal/features/tenders/models"
	"tenderwatch/internal/features/tenders/services"
	"tenderwatch/internal/mailer"
)

// Feature represents the tender ingestion feature
type Feature struct {
	*core.BaseFeature
	config           *Config
	sources          []models.Source
	migrationMgr     *migrations.Manager
	recordService    *services.RecordService
	cacheService     *services.CacheService
	readerService    *services.ReaderService
	schedulerService *services.SchedulerService
	handlers         *handlers.Handlers
}

// NewFeature creates a new tender ingestion feature. The source table
// is loaded and validated here so misconfiguration fails at startup,
// not on the first tick.
func NewFeature(logger *core.Logger, db *core.Database, registry *adapters.Registry, config *Config) (*Feature, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sources, err := models.LoadSources(config.SourcesPath)
	if err != nil {
		return nil, err
	}

	for i := range sources {
		source := &sources[i]
		if !source.Enabled {
			continue
		}
		if _, exists := registry.Get(source.Adapter); !exists {
			return nil, fmt.Errorf("source %s uses unknown adapter %q (registered: %v)",
				source.ID, source.Adapter, registry.Names())
		}
	}

	// Create migration manager and services
	migrationMgr := migrations.NewManager(db, logger)
	recordService := services.NewRecordService(db, logger)

	schedulerConfig := config.SchedulerConfig()
	cacheService := services.NewCacheService(schedulerConfig.CacheTTL, logger)
	readerService := services.NewReaderService(recordService, cacheService, logger)

	var notifier services.Notifier
	switch config.Notifier {
	case "mail":
		mailClient := mailer.New(config.SMTP2GOAPIKey, config.SMTP2GOSender)
		notifier = services.NewMailNotifier(mailClient, config.AlertRecipient, logger)
	default:
		notifier = services.NewLogNotifier(logger)
	}

	schedulerService := services.NewSchedulerService(
		sources, registry, recordService, cacheService, notifier, logger, schedulerConfig)

	// Create handlers
	handlers := handlers.NewHandlers(logger, sources, schedulerService, readerService)

	feature := &Feature{
		BaseFeature:      core.NewBaseFeature("tenders", "Tender Ingestion Scheduler", config.Enabled, logger, db, config),
		config:           config,
		sources:          sources,
		migrationMgr:     migrationMgr,
		recordService:    recordService,
		cacheService:     cacheService,
		readerService:    readerService,
		schedulerService: schedulerService,
		handlers:         handlers,
	}

	return feature, nil
}

// Init initializes the tender feature
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	// Run migrations
	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	// Start scheduler if feature is enabled
	if f.config.Enabled {
		if err := f.schedulerService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start ingestion scheduler: %w", err)
		}
		f.Logger().Info("Ingestion scheduler started", "sources", len(f.sources))
	}

	f.Logger().Info("Tender feature initialized successfully")
	return nil
}

// Routes returns the HTTP routes for the tender feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		// Source data and configuration
		{Method: "GET", Path: "/tenders/sources", Handler: f.handlers.ListSources},
		{Method: "GET", Path: "/tenders/sources/{id}", Handler: f.handlers.ReadSource},

		// Forced runs
		{Method: "POST", Path: "/tenders/sources/{id}/refresh", Handler: f.handlers.RefreshSource},
		{Method: "POST", Path: "/tenders/refresh", Handler: f.handlers.RefreshAll},

		// Observability
		{Method: "GET", Path: "/tenders/status", Handler: f.handlers.Status},
	}
}

// Shutdown gracefully shuts down the tender feature
func (f *Feature) Shutdown(ctx context.Context) error {
	f.Logger().Info("Shutting down tender feature")

	if f.config.Enabled && f.schedulerService != nil {
		if err := f.schedulerService.Stop(ctx); err != nil {
			f.Logger().Error("Failed to stop ingestion scheduler", "error", err)
		}
	}

	return f.BaseFeature.Shutdown(ctx)
}

// GetSchedulerService returns the scheduler service
func (f *Feature) GetSchedulerService() *services.SchedulerService {
	return f.schedulerService
}

// GetReaderService returns the reader service
func (f *Feature) GetReaderService() *services.ReaderService {
	return f.readerService
}

// GetRecordService returns the record service
func (f *Feature) GetRecordService() *services.RecordService {
	return f.recordService
}

// GetMigrationManager returns the migration manager for this feature
func (f *Feature) GetMigrationManager() *migrations.Manager {
	return f.migrationMgr
}
