package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source table validation errors.
var (
	ErrNoSources          = errors.New("at least one source is required")
	ErrSourceMissingID    = errors.New("source id is required")
	ErrSourceMissingName  = errors.New("source name is required")
	ErrSourceMissingAdapt = errors.New("source adapter is required")
	ErrDuplicateSourceID  = errors.New("duplicate source id")
	ErrInvalidInterval    = errors.New("source interval_minutes must be at least 1")
	ErrNoEnabledSources   = errors.New("at least one source must be enabled")
)

// Source is the static configuration for one external tender origin.
// Sources are loaded once at startup and never mutated afterwards.
type Source struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Adapter         string `yaml:"adapter" json:"adapter"`
	URL             string `yaml:"url" json:"url,omitempty"`
	Priority        int    `yaml:"priority" json:"priority"`
	IntervalMinutes int    `yaml:"interval_minutes" json:"interval_minutes"`
	Enabled         bool   `yaml:"enabled" json:"enabled"`
}

// Interval returns the scrape interval as a duration
func (s *Source) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// SourceFile is the on-disk layout of sources.yaml
type SourceFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads and validates the source table from a YAML file
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var file SourceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	if err := ValidateSources(file.Sources); err != nil {
		return nil, err
	}

	return file.Sources, nil
}

// ValidateSources checks the source table for configuration mistakes
func ValidateSources(sources []Source) error {
	if len(sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[string]bool, len(sources))
	enabled := 0
	for i := range sources {
		s := &sources[i]
		if s.ID == "" {
			return fmt.Errorf("source %d: %w", i, ErrSourceMissingID)
		}
		if s.Name == "" {
			return fmt.Errorf("source %s: %w", s.ID, ErrSourceMissingName)
		}
		if s.Adapter == "" {
			return fmt.Errorf("source %s: %w", s.ID, ErrSourceMissingAdapt)
		}
		if s.IntervalMinutes < 1 {
			return fmt.Errorf("source %s: %w", s.ID, ErrInvalidInterval)
		}
		if seen[s.ID] {
			return fmt.Errorf("source %s: %w", s.ID, ErrDuplicateSourceID)
		}
		seen[s.ID] = true
		if s.Enabled {
			enabled++
		}
	}

	if enabled == 0 {
		return ErrNoEnabledSources
	}

	return nil
}
