package services

import (
	"context"
	"fmt"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
)

// ReaderService serves the current data for a source: cache first,
// record store on a miss, typed failure when both are unavailable.
// Consumers never get silently wrong data.
type ReaderService struct {
	records *RecordService
	cache   *CacheService
	logger  *core.Logger
}

// NewReaderService creates a new reader service
func NewReaderService(records *RecordService, cache *CacheService, logger *core.Logger) *ReaderService {
	return &ReaderService{
		records: records,
		cache:   cache,
		logger:  logger,
	}
}

// Read returns the current record list for a source
func (s *ReaderService) Read(ctx context.Context, sourceID string) *models.SourceData {
	if entry, ok := s.cache.Get(sourceID); ok {
		fetchedAt := entry.FetchedAt
		return &models.SourceData{
			Success:   true,
			Source:    sourceID,
			Records:   entry.Records,
			NewCount:  entry.NewCount,
			Cached:    true,
			FetchedAt: &fetchedAt,
		}
	}

	records, err := s.records.ListBySource(ctx, sourceID)
	if err != nil {
		s.logger.Error("Read path degraded, store query failed", "source", sourceID, "error", err)
		return &models.SourceData{
			Success: false,
			Source:  sourceID,
			Error:   core.NewReadPathError(fmt.Sprintf("failed to load records for %s", sourceID), err),
		}
	}

	// Repopulate lazily so repeated misses self-heal within the TTL.
	// The new-this-run count is unknown on this path.
	s.cache.Set(sourceID, records, 0)

	return &models.SourceData{
		Success:  true,
		Source:   sourceID,
		Records:  records,
		NewCount: 0,
		Cached:   false,
		Fallback: "database",
	}
}
