package services

import (
	"context"
	"testing"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
)

func testBatch() []models.RawRecord {
	return []models.RawRecord{
		{Name: "Road resurfacing N1", PostedDate: "2025-03-01", ClosingDate: "2025-04-01",
			DownloadLinks: []models.DownloadLink{{Text: "Tender notice", URL: "https://example.gov/n1.pdf"}}},
		{Name: "School canteen catering", PostedDate: "2025-03-02"},
		{Name: "Hospital laundry services", PostedDate: "2025-03-02", ClosingDate: "2025-03-20"},
		{Name: "Street light maintenance", PostedDate: "2025-03-03"},
		{Name: "Water meter installation", PostedDate: "2025-03-04"},
	}
}

func TestIngestBatchAllNew(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	newRecords, err := service.IngestBatch(ctx, "etenders", testBatch())
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}

	if len(newRecords) != 5 {
		t.Errorf("Expected 5 new records, got %d", len(newRecords))
	}

	count, err := service.CountBySource(ctx, "etenders")
	if err != nil {
		t.Fatalf("CountBySource failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 stored records, got %d", count)
	}
}

func TestIngestBatchIdempotent(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	if _, err := service.IngestBatch(ctx, "etenders", testBatch()); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}

	// Feeding the same batch again must yield zero new records
	newRecords, err := service.IngestBatch(ctx, "etenders", testBatch())
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}
	if len(newRecords) != 0 {
		t.Errorf("Expected 0 new records on replay, got %d", len(newRecords))
	}

	count, _ := service.CountBySource(ctx, "etenders")
	if count != 5 {
		t.Errorf("Expected 5 stored records after replay, got %d", count)
	}
}

func TestIngestBatchOneAdditional(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	if _, err := service.IngestBatch(ctx, "etenders", testBatch()); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}

	batch := append(testBatch(), models.RawRecord{Name: "Bridge inspection", PostedDate: "2025-03-05"})
	newRecords, err := service.IngestBatch(ctx, "etenders", batch)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	if len(newRecords) != 1 {
		t.Fatalf("Expected exactly 1 new record, got %d", len(newRecords))
	}
	if newRecords[0].Name != "Bridge inspection" {
		t.Errorf("Expected the additional record to be new, got %s", newRecords[0].Name)
	}
}

func TestIngestBatchSignatureIgnoresClosingDate(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	first := []models.RawRecord{{Name: "Road works", PostedDate: "2025-03-01", ClosingDate: "2025-04-01"}}
	if _, err := service.IngestBatch(ctx, "etenders", first); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}

	// Same (name, posted date, source), different closing date and links
	second := []models.RawRecord{{Name: "Road works", PostedDate: "2025-03-01", ClosingDate: "2025-05-15",
		DownloadLinks: []models.DownloadLink{{Text: "Amendment", URL: "https://example.gov/a.pdf"}}}}
	newRecords, err := service.IngestBatch(ctx, "etenders", second)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	if len(newRecords) != 0 {
		t.Errorf("Records differing only in closing date must be duplicates, got %d new", len(newRecords))
	}

	count, _ := service.CountBySource(ctx, "etenders")
	if count != 1 {
		t.Errorf("Expected 1 stored record, got %d", count)
	}
}

func TestIngestBatchInBatchDuplicates(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	batch := []models.RawRecord{
		{Name: "Road works", PostedDate: "2025-03-01", ClosingDate: "2025-04-01"},
		{Name: "Road works", PostedDate: "2025-03-01", ClosingDate: "2025-05-15"},
		{Name: "Catering", PostedDate: "2025-03-02"},
	}

	newRecords, err := service.IngestBatch(ctx, "etenders", batch)
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}

	if len(newRecords) != 2 {
		t.Fatalf("Expected 2 new records (first occurrence wins), got %d", len(newRecords))
	}
	if newRecords[0].ClosingDate != "2025-04-01" {
		t.Errorf("Expected the first occurrence to win, got closing date %s", newRecords[0].ClosingDate)
	}
}

func TestIngestBatchSourcesAreIsolated(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	batch := []models.RawRecord{{Name: "Road works", PostedDate: "2025-03-01"}}

	if _, err := service.IngestBatch(ctx, "etenders", batch); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}

	// The same tender fetched from another source is a distinct record
	newRecords, err := service.IngestBatch(ctx, "treasury", batch)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}
	if len(newRecords) != 1 {
		t.Errorf("Expected 1 new record for the other source, got %d", len(newRecords))
	}
}

func TestIngestBatchLargeBatchChunked(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	// Three chunks worth of records
	var batch []models.RawRecord
	for i := 0; i < 130; i++ {
		batch = append(batch, models.RawRecord{
			Name:       "Tender " + string(rune('A'+i%26)) + "-" + string(rune('0'+i/26)),
			PostedDate: "2025-03-01",
		})
	}

	newRecords, err := service.IngestBatch(ctx, "etenders", batch)
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if len(newRecords) != 130 {
		t.Errorf("Expected 130 new records, got %d", len(newRecords))
	}

	count, _ := service.CountBySource(ctx, "etenders")
	if count != 130 {
		t.Errorf("Expected 130 stored records, got %d", count)
	}
}

func TestListBySourceRoundTrip(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())
	ctx := context.Background()

	if _, err := service.IngestBatch(ctx, "etenders", testBatch()); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	records, err := service.ListBySource(ctx, "etenders")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(records))
	}

	var withLinks *models.Record
	for i := range records {
		if records[i].Name == "Road resurfacing N1" {
			withLinks = &records[i]
		}
	}
	if withLinks == nil {
		t.Fatal("Expected to find the record with download links")
	}
	if len(withLinks.DownloadLinks) != 1 || withLinks.DownloadLinks[0].URL != "https://example.gov/n1.pdf" {
		t.Errorf("Download links did not round-trip: %+v", withLinks.DownloadLinks)
	}

	// Other sources see nothing
	other, err := service.ListBySource(ctx, "treasury")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no records for other source, got %d", len(other))
	}
}

func TestIngestBatchStorageFailure(t *testing.T) {
	db := newTestDB(t)
	service := NewRecordService(db, core.NewLogger())

	// Closed database makes the signature read fail
	db.DB.Close()

	_, err := service.IngestBatch(context.Background(), "etenders", testBatch())
	if err == nil {
		t.Fatal("Expected storage error on closed database")
	}

	appErr, ok := err.(*core.AppError)
	if !ok {
		t.Fatalf("Expected *core.AppError, got %T", err)
	}
	if appErr.Code != core.ErrCodeStorage {
		t.Errorf("Expected %s, got %s", core.ErrCodeStorage, appErr.Code)
	}
}
