package migrations

import (
	"context"
	"fmt"

	"tenderwatch/internal/core"
)

// Manager handles tender feature migrations
type Manager struct {
	migrationService *core.MigrationService
	logger           *core.Logger
}

// NewManager creates a new tender migration manager
func NewManager(db *core.Database, logger *core.Logger) *Manager {
	migrationService := core.NewMigrationService(db, logger)
	return &Manager{
		migrationService: migrationService,
		logger:           logger,
	}
}

// Migrations returns all tender migrations in order
func (m *Manager) Migrations() []core.Migration {
	return []core.Migration{
		Migration001CreateTenderTables,
	}
}

// Migrate applies all pending tender migrations
func (m *Manager) Migrate(ctx context.Context) error {
	// Initialize migrations table if it doesn't exist
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	migrations := m.Migrations()
	m.logger.Info("Starting tender migrations", "count", len(migrations))

	for _, migration := range migrations {
		if err := m.migrationService.ApplyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	m.logger.Info("Tender migrations completed successfully")
	return nil
}

// Rollback rolls back the last applied tender migration
func (m *Manager) Rollback(ctx context.Context) error {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	applied, err := m.migrationService.GetAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if len(applied) == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	// Find the last applied tender migration
	var lastApplied *core.Migration
	for _, migration := range applied {
		for _, tenderMigration := range m.Migrations() {
			if migration.Version == tenderMigration.Version {
				lastApplied = &tenderMigration
				break
			}
		}
	}

	if lastApplied == nil {
		return fmt.Errorf("no tender migrations have been applied")
	}

	if err := m.migrationService.RollbackMigration(ctx, *lastApplied); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", lastApplied.Version, lastApplied.Name, err)
	}

	m.logger.Info("Rolled back tender migration", "version", lastApplied.Version, "name", lastApplied.Name)
	return nil
}

// Status returns the current migration status
func (m *Manager) Status(ctx context.Context) (*core.MigrationStatus, error) {
	return m.migrationService.GetMigrationStatus(ctx)
}
