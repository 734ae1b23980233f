package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tenderwatch/internal/features/tenders/models"
)

// HTTPJSONAdapter fetches a JSON array of raw records from a source URL.
// It covers sources that already expose structured data; HTML-scraping
// sources plug in their own SourceAdapter.
type HTTPJSONAdapter struct {
	client    *http.Client
	userAgent string
}

// NewHTTPJSONAdapter creates an adapter with its own HTTP client
func NewHTTPJSONAdapter(timeout time.Duration, userAgent string) *HTTPJSONAdapter {
	return &HTTPJSONAdapter{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch implements SourceAdapter
func (a *HTTPJSONAdapter) Fetch(ctx context.Context, source *models.Source) ([]models.RawRecord, error) {
	if source.URL == "" {
		return nil, fmt.Errorf("source %s has no URL configured", source.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", source.ID, err)
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s returned status %d", source.ID, resp.StatusCode)
	}

	var records []models.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records from %s: %w", source.ID, err)
	}

	return records, nil
}
