package models

import (
	"strings"
	"time"
)

// DownloadLink is one labelled document link attached to a tender
type DownloadLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// RawRecord is what a source adapter hands back before deduplication
type RawRecord struct {
	Name          string         `json:"name"`
	PostedDate    string         `json:"posted_date"`
	ClosingDate   string         `json:"closing_date,omitempty"`
	DownloadLinks []DownloadLink `json:"download_links,omitempty"`
}

// Record is a persisted tender
type Record struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	PostedDate    string         `json:"posted_date"`
	ClosingDate   string         `json:"closing_date,omitempty"`
	DownloadLinks []DownloadLink `json:"download_links,omitempty"`
	Source        string         `json:"source"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Signature builds the dedup key for a (name, posted date, source) triple.
// Comparison is exact string equality; the separator cannot occur in
// scraped text.
func Signature(name, postedDate, source string) string {
	return strings.Join([]string{name, postedDate, source}, "\x1f")
}

// Signature returns the record's dedup key
func (r *Record) Signature() string {
	return Signature(r.Name, r.PostedDate, r.Source)
}

// SignatureFor returns the dedup key the raw record would have under a source
func (r *RawRecord) SignatureFor(source string) string {
	return Signature(r.Name, r.PostedDate, source)
}
