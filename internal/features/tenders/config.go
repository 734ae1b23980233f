package tenders

import (
	"fmt"
	"time"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
)

// Config represents tender feature configuration
type Config struct {
	Enabled        bool
	SourcesPath    string
	TickInterval   int
	CacheTTL       int
	RetryBaseDelay int
	RetryMaxDelay  int
	Notifier       string
	SMTP2GOAPIKey  string
	SMTP2GOSender  string
	AlertRecipient string
}

// NewConfig creates tender config from core config
func NewConfig(coreConfig *core.Config) *Config {
	return &Config{
		Enabled:        coreConfig.Features.Tenders.Enabled,
		SourcesPath:    coreConfig.Features.Tenders.SourcesPath,
		TickInterval:   coreConfig.Features.Tenders.TickInterval,
		CacheTTL:       coreConfig.Features.Tenders.CacheTTL,
		RetryBaseDelay: coreConfig.Features.Tenders.RetryBaseDelay,
		RetryMaxDelay:  coreConfig.Features.Tenders.RetryMaxDelay,
		Notifier:       coreConfig.Features.Tenders.Notifier,
		SMTP2GOAPIKey:  coreConfig.Features.Tenders.SMTP2GOAPIKey,
		SMTP2GOSender:  coreConfig.Features.Tenders.SMTP2GOSender,
		AlertRecipient: coreConfig.Features.Tenders.AlertRecipient,
	}
}

// Validate validates the tender configuration
func (c *Config) Validate() error {
	if c.TickInterval < 10 || c.TickInterval > 86400 {
		return fmt.Errorf("tick interval must be between 10 and 86400 seconds")
	}

	if c.CacheTTL < 1 {
		return fmt.Errorf("cache TTL must be at least 1 second")
	}

	if c.RetryBaseDelay < 1 {
		return fmt.Errorf("retry base delay must be at least 1 second")
	}

	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("retry max delay must not be below the base delay")
	}

	switch c.Notifier {
	case "log", "mail":
	default:
		return fmt.Errorf("notifier must be 'log' or 'mail', got %q", c.Notifier)
	}

	if c.Notifier == "mail" && c.AlertRecipient == "" {
		return fmt.Errorf("alert recipient is required for the mail notifier")
	}

	return nil
}

// SchedulerConfig converts the second-based settings into durations
func (c *Config) SchedulerConfig() *models.SchedulerConfig {
	return &models.SchedulerConfig{
		TickInterval:   time.Duration(c.TickInterval) * time.Second,
		RetryBaseDelay: time.Duration(c.RetryBaseDelay) * time.Second,
		RetryMaxDelay:  time.Duration(c.RetryMaxDelay) * time.Second,
		CacheTTL:       time.Duration(c.CacheTTL) * time.Second,
	}
}
