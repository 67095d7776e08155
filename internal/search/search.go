// Package search resolves a topic into candidate reference articles. Search
// APIs and results-page scraping sit behind the same Provider contract and the
// Resolver decides which one answers.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Result is a single candidate reference. Rank is 1-based within the list a
// Resolver returns; providers leave it zero.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank,omitempty"`
	Source  string `json:"-"` // provider name for observability
}

// Provider is a source of raw search hits.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// getJSON performs a GET and decodes a JSON body into dst.
func getJSON(ctx context.Context, hc *http.Client, endpoint, userAgent string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
