package migrations

import (
	"tenderwatch/internal/core"
)

// Migration001CreateTenderTables creates the initial tender tables
var Migration001CreateTenderTables = core.Migration{
	Version:     1,
	Name:        "create_tender_tables",
	Description: "Create initial tender ingestion tables",
	UpSQL: `
		-- Ingested tenders. The UNIQUE constraint is the dedup signature;
		-- concurrent writers rely on INSERT OR IGNORE against it.
		CREATE TABLE IF NOT EXISTS tenders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			posted_date TEXT NOT NULL,
			closing_date TEXT,
			download_links TEXT NOT NULL DEFAULT '[]',
			source TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, posted_date, source)
		);

		-- Create indexes for better performance
		CREATE INDEX IF NOT EXISTS idx_tenders_source ON tenders(source);
		CREATE INDEX IF NOT EXISTS idx_tenders_created_at ON tenders(created_at);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_tenders_created_at;
		DROP INDEX IF EXISTS idx_tenders_source;
		DROP TABLE IF EXISTS tenders;
	`,
}
