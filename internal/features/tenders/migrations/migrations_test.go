package migrations

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"tenderwatch/internal/core"
)

func TestTenderMigrations(t *testing.T) {
	// Create temporary database
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	// Create core database wrapper
	coreDB := core.NewDatabase(db, core.NewLogger())

	// Create migration manager
	manager := NewManager(coreDB, core.NewLogger())

	// Test that migrations can be applied
	ctx := context.Background()
	err = manager.Migrate(ctx)
	if err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	// Verify migrations table was created
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query migrations table: %v", err)
	}

	expectedMigrations := len(manager.Migrations())
	if count != expectedMigrations {
		t.Errorf("Expected %d migrations, got %d", expectedMigrations, count)
	}

	// Verify tender tables were created
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", "tenders").Scan(&tableCount)
	if err != nil {
		t.Fatalf("Failed to check tenders table: %v", err)
	}
	if tableCount != 1 {
		t.Error("Table tenders was not created")
	}

	// Test that migrations are idempotent (can be run multiple times)
	err = manager.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrations are not idempotent: %v", err)
	}

	// The unique constraint is the dedup signature; make sure it holds
	_, err = db.Exec(`INSERT INTO tenders (name, posted_date, source) VALUES ('Tender A', '2025-01-01', 'src')`)
	if err != nil {
		t.Fatalf("Failed to insert tender: %v", err)
	}
	_, err = db.Exec(`INSERT INTO tenders (name, posted_date, source) VALUES ('Tender A', '2025-01-01', 'src')`)
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate signature")
	}

	// INSERT OR IGNORE must swallow the conflict instead
	_, err = db.Exec(`INSERT OR IGNORE INTO tenders (name, posted_date, source) VALUES ('Tender A', '2025-01-01', 'src')`)
	if err != nil {
		t.Errorf("INSERT OR IGNORE should not fail on duplicate signature: %v", err)
	}
}

func TestTenderMigrationRollback(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	coreDB := core.NewDatabase(db, core.NewLogger())
	manager := NewManager(coreDB, core.NewLogger())
	ctx := context.Background()

	if err := manager.Migrate(ctx); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := manager.Rollback(ctx); err != nil {
		t.Fatalf("Failed to rollback migration: %v", err)
	}

	// The tenders table and its version record must both be gone
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", "tenders").Scan(&tableCount)
	if err != nil {
		t.Fatalf("Failed to check tenders table: %v", err)
	}
	if tableCount != 0 {
		t.Error("Expected tenders table to be dropped by rollback")
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Failed to get migration status: %v", err)
	}
	if status.AppliedCount != 0 {
		t.Errorf("Expected no applied migrations after rollback, got %d", status.AppliedCount)
	}

	// Migrate again restores the schema
	if err := manager.Migrate(ctx); err != nil {
		t.Fatalf("Failed to re-apply migrations: %v", err)
	}
	status, err = manager.Status(ctx)
	if err != nil {
		t.Fatalf("Failed to get migration status: %v", err)
	}
	if status.AppliedCount != len(manager.Migrations()) {
		t.Errorf("Expected %d applied migrations, got %d", len(manager.Migrations()), status.AppliedCount)
	}
}
