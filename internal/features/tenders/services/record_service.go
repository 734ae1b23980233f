package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
)

// upsertChunkSize bounds the size of a single bulk insert
const upsertChunkSize = 50

// RecordService decides which fetched records are genuinely new and
// persists them. Dedup is checked against durable storage, never only
// in-memory state, so a record is reported as new at most once across
// process restarts.
type RecordService struct {
	db     *core.Database
	logger *core.Logger
}

// NewRecordService creates a new record service
func NewRecordService(db *core.Database, logger *core.Logger) *RecordService {
	return &RecordService{
		db:     db,
		logger: logger,
	}
}

// IngestBatch returns the subset of raws that are new for the source and
// persists them in chunks. The new-record list is returned even when some
// chunks fail; the error is non-nil only if fewer records were persisted
// than attempted.
func (s *RecordService) IngestBatch(ctx context.Context, sourceID string, raws []models.RawRecord) ([]models.Record, error) {
	existing, err := s.existingSignatures(ctx, sourceID)
	if err != nil {
		return nil, core.NewStorageError(fmt.Sprintf("failed to read existing signatures for %s", sourceID), err)
	}

	// First occurrence wins for duplicates within the batch itself
	seen := make(map[string]bool)
	now := time.Now()
	var newRecords []models.Record
	for _, raw := range raws {
		sig := raw.SignatureFor(sourceID)
		if existing[sig] || seen[sig] {
			continue
		}
		seen[sig] = true
		newRecords = append(newRecords, models.Record{
			Name:          raw.Name,
			PostedDate:    raw.PostedDate,
			ClosingDate:   raw.ClosingDate,
			DownloadLinks: raw.DownloadLinks,
			Source:        sourceID,
			CreatedAt:     now,
		})
	}

	if len(newRecords) == 0 {
		return nil, nil
	}

	attempted := len(newRecords)
	persisted := 0
	var lastChunkErr error

	for start := 0; start < attempted; start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > attempted {
			end = attempted
		}
		chunk := newRecords[start:end]

		if err := s.insertChunk(ctx, chunk); err != nil {
			lastChunkErr = err
			s.logger.Error("Failed to persist record chunk",
				"source", sourceID, "chunk_start", start, "chunk_size", len(chunk), "error", err)
			continue
		}
		persisted += len(chunk)
	}

	if persisted < attempted {
		return newRecords, core.NewStorageError(
			fmt.Sprintf("persisted %d of %d new records for %s", persisted, attempted, sourceID),
			lastChunkErr)
	}

	s.logger.Info("Persisted new records", "source", sourceID, "count", persisted)
	return newRecords, nil
}

// existingSignatures bulk-loads the dedup keys already stored for a source
func (s *RecordService) existingSignatures(ctx context.Context, sourceID string) (map[string]bool, error) {
	query := `SELECT name, posted_date FROM tenders WHERE source = ?`

	rows, err := s.db.QueryWithTimeout(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signatures: %w", err)
	}
	defer rows.Close()

	signatures := make(map[string]bool)
	for rows.Next() {
		var name, postedDate string
		if err := rows.Scan(&name, &postedDate); err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures[models.Signature(name, postedDate, sourceID)] = true
	}

	return signatures, rows.Err()
}

// insertChunk writes one chunk with a multi-row INSERT OR IGNORE, so a
// race between two writers inserting the same record never errors
func (s *RecordService) insertChunk(ctx context.Context, chunk []models.Record) error {
	placeholders := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*5)

	for _, record := range chunk {
		links, err := json.Marshal(record.DownloadLinks)
		if err != nil {
			return fmt.Errorf("failed to marshal download links for %q: %w", record.Name, err)
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?)")
		args = append(args, record.Name, record.PostedDate, record.ClosingDate, string(links), record.Source)
	}

	query := `
		INSERT OR IGNORE INTO tenders (name, posted_date, closing_date, download_links, source)
		VALUES ` + strings.Join(placeholders, ", ")

	_, err := s.db.ExecWithTimeout(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	return nil
}

// ListBySource returns all stored records for a source, newest first
func (s *RecordService) ListBySource(ctx context.Context, sourceID string) ([]models.Record, error) {
	query := `
		SELECT id, name, posted_date, closing_date, download_links, source, created_at
		FROM tenders
		WHERE source = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryWithTimeout(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var record models.Record
		var closingDate sql.NullString
		var links string

		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.PostedDate,
			&closingDate,
			&links,
			&record.Source,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		if closingDate.Valid {
			record.ClosingDate = closingDate.String
		}
		if err := json.Unmarshal([]byte(links), &record.DownloadLinks); err != nil {
			s.logger.Error("Failed to decode download links", "record_id", record.ID, "error", err)
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// CountBySource returns the number of stored records for a source
func (s *RecordService) CountBySource(ctx context.Context, sourceID string) (int, error) {
	query := `SELECT COUNT(*) FROM tenders WHERE source = ?`

	var count int
	err := s.db.QueryRowWithTimeout(ctx, query, sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}
