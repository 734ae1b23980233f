package models

import (
	"time"

	"tenderwatch/internal/core"
)

// CacheEntry is a short-lived per-source snapshot of the record list
type CacheEntry struct {
	Records   []Record  `json:"records"`
	NewCount  int       `json:"new_count"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry's TTL has elapsed
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// SourceData is what the read path hands to API consumers. Success is
// false only when both the cache and the record store were unavailable;
// callers decide whether to show stale data or an error.
type SourceData struct {
	Success   bool           `json:"success"`
	Source    string         `json:"source"`
	Records   []Record       `json:"records"`
	NewCount  int            `json:"new_count"`
	Cached    bool           `json:"cached"`
	Fallback  string         `json:"fallback,omitempty"`
	FetchedAt *time.Time     `json:"fetched_at,omitempty"`
	Error     *core.AppError `json:"error,omitempty"`
}
