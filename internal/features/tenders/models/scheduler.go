package models

import (
	"time"
)

// SchedulerConfig holds configuration for the scheduler service
type SchedulerConfig struct {
	TickInterval   time.Duration `json:"tick_interval"`
	RetryBaseDelay time.Duration `json:"retry_base_delay"`
	RetryMaxDelay  time.Duration `json:"retry_max_delay"`
	CacheTTL       time.Duration `json:"cache_ttl"`
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		TickInterval:   5 * time.Minute,  // Check for due jobs every 5 minutes
		RetryBaseDelay: 2 * time.Minute,  // First retry after 2 minutes
		RetryMaxDelay:  2 * time.Hour,    // Backoff cap
		CacheTTL:       10 * time.Minute, // Snapshot freshness window
	}
}
