package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config represents the main configuration for Tenderwatch
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Features FeatureConfig  `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Tenders TendersConfig `json:"tenders"`
}

// TendersConfig contains tender ingestion configuration.
// Interval-like values are seconds.
type TendersConfig struct {
	Enabled        bool   `json:"enabled"`
	SourcesPath    string `json:"sources_path"`
	TickInterval   int    `json:"tick_interval"`
	CacheTTL       int    `json:"cache_ttl"`
	RetryBaseDelay int    `json:"retry_base_delay"`
	RetryMaxDelay  int    `json:"retry_max_delay"`
	Notifier       string `json:"notifier"`
	SMTP2GOAPIKey  string `json:"smtp2go_api_key"`
	SMTP2GOSender  string `json:"smtp2go_sender"`
	AlertRecipient string `json:"alert_recipient"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("TW_PORT", 4000),
			Host: getEnvOrDefault("TW_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("TW_DB_PATH", "./tenderwatch.db"),
		},
		Features: FeatureConfig{
			Tenders: TendersConfig{
				Enabled:        getEnvAsBool("TW_ENABLE_TENDERS", true),
				SourcesPath:    getEnvOrDefault("TW_SOURCES_PATH", "./sources.yaml"),
				TickInterval:   getEnvAsInt("TW_TICK_INTERVAL", 300),
				CacheTTL:       getEnvAsInt("TW_CACHE_TTL", 600),
				RetryBaseDelay: getEnvAsInt("TW_RETRY_BASE_DELAY", 120),
				RetryMaxDelay:  getEnvAsInt("TW_RETRY_MAX_DELAY", 7200),
				Notifier:       getEnvOrDefault("TW_NOTIFIER", "log"),
				SMTP2GOAPIKey:  getEnvOrDefault("TW_SMTP2GO_API_KEY", ""),
				SMTP2GOSender:  getEnvOrDefault("TW_SMTP2GO_SENDER", "Tenderwatch <alerts@tenderwatch.dev>"),
				AlertRecipient: getEnvOrDefault("TW_ALERT_RECIPIENT", ""),
			},
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Features.Tenders.Enabled {
		if c.Features.Tenders.SourcesPath == "" {
			return fmt.Errorf("sources path is required when tender ingestion is enabled")
		}
		if c.Features.Tenders.Notifier == "mail" && c.Features.Tenders.SMTP2GOAPIKey == "" {
			return fmt.Errorf("SMTP2GO API key is required when the mail notifier is enabled")
		}
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "tenders":
		return c.Features.Tenders.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
