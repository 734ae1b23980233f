package services

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/migrations"
)

// newTestDB opens an in-memory database with the tender schema applied.
// Connections are pinned to one so every query sees the same memory db.
func newTestDB(t *testing.T) *core.Database {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	coreDB := core.NewDatabase(db, core.NewLogger())

	manager := migrations.NewManager(coreDB, core.NewLogger())
	if err := manager.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return coreDB
}
