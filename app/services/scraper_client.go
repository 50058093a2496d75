// Package services provides external service integrations and technical concerns like scraping, scoring, notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ScrapeRequest carries the search parameters forwarded to the scraper service
type ScrapeRequest struct {
	SearchTerms   []string `json:"search_terms"`
	Locations     []string `json:"locations"`
	SiteNames     []string `json:"site_names"`
	ResultsWanted int      `json:"results_wanted"`
	HoursOld      int      `json:"hours_old"`
}

// RawJob is one job record as the scraper returned it. The shape is owned by
// the scraper and varies per board; accessors pull out only the fields the
// ingestion pipeline needs and tolerate anything else.
type RawJob map[string]any

// StringField returns a string field of the raw record, or "" when absent
func (j RawJob) StringField(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}

// StringSliceField returns a string list field of the raw record
func (j RawJob) StringSliceField(key string) []string {
	switch v := j[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ScrapeResult is the scraper's top-level response. Partial upstream failures
// surface as Success=false plus Message, never as a partial job list.
type ScrapeResult struct {
	Success bool     `json:"success"`
	Message *string  `json:"message,omitempty"`
	Jobs    []RawJob `json:"jobs,omitempty"`
}

// ScraperClient calls the external job source scraper service
type ScraperClient interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error)
}

// HTTPScraperClient implements ScraperClient over the scraper's REST endpoint
type HTTPScraperClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewScraperClient creates a scraper client with a bounded request timeout.
// Requests that exceed the timeout fail fast instead of hanging the caller.
func NewScraperClient(baseURL, apiKey string, timeout time.Duration) *HTTPScraperClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPScraperClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *HTTPScraperClient) Name() string { return "scraper" }

// Scrape posts the search parameters to the scraper's /scrape-json endpoint.
// Transport and timeout failures are returned as errors; upstream scrape
// failures come back as a result with Success=false.
func (c *HTTPScraperClient) Scrape(ctx context.Context, in ScrapeRequest) (*ScrapeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/scrape-json", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper: status %d for /scrape-json", resp.StatusCode)
	}

	var out ScrapeResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("scraper: invalid response: %w", err)
	}

	return &out, nil
}
