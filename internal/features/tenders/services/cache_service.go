package services

import (
	"sync"
	"time"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
)

// CacheService holds one snapshot per source with a TTL. Entries are
// overwritten after every successful run and may also be repopulated
// lazily by the read path; an expired entry behaves exactly like an
// absent one.
type CacheService struct {
	mutex   sync.RWMutex
	entries map[string]*models.CacheEntry
	ttl     time.Duration
	logger  *core.Logger
}

// NewCacheService creates a cache with the given TTL
func NewCacheService(ttl time.Duration, logger *core.Logger) *CacheService {
	return &CacheService{
		entries: make(map[string]*models.CacheEntry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the unexpired entry for a source, if any. Expired entries
// are dropped on the way out.
func (c *CacheService) Get(sourceID string) (*models.CacheEntry, bool) {
	c.mutex.RLock()
	entry, exists := c.entries[sourceID]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if entry.Expired(time.Now()) {
		c.mutex.Lock()
		// Re-check under the write lock; a fresh Set may have raced us
		if current, ok := c.entries[sourceID]; ok && current.Expired(time.Now()) {
			delete(c.entries, sourceID)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return entry, true
}

// Set overwrites the snapshot for a source
func (c *CacheService) Set(sourceID string, records []models.Record, newCount int) {
	now := time.Now()
	entry := &models.CacheEntry{
		Records:   records,
		NewCount:  newCount,
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mutex.Lock()
	c.entries[sourceID] = entry
	c.mutex.Unlock()

	c.logger.Debug("Cached source snapshot", "source", sourceID, "records", len(records), "new", newCount)
}

// Invalidate removes the entry for a source
func (c *CacheService) Invalidate(sourceID string) {
	c.mutex.Lock()
	delete(c.entries, sourceID)
	c.mutex.Unlock()
}

// InvalidateAll clears the whole cache
func (c *CacheService) InvalidateAll() {
	c.mutex.Lock()
	c.entries = make(map[string]*models.CacheEntry)
	c.mutex.Unlock()
}

// Len returns the number of entries, expired or not
func (c *CacheService) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
