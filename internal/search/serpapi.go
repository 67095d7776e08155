package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSerpAPIURL is the SerpAPI JSON endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search.json"

// SerpAPI queries Google through SerpAPI and returns its organic results.
type SerpAPI struct {
	APIKey     string
	BaseURL    string // defaults to DefaultSerpAPIURL
	Engine     string // defaults to "google"
	HTTPClient *http.Client
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, errors.New("missing serpapi key")
	}
	if limit <= 0 {
		limit = 10
	}
	base := s.BaseURL
	if base == "" {
		base = DefaultSerpAPIURL
	}
	engine := s.Engine
	if engine == "" {
		engine = "google"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("engine", engine)
	q.Set("q", query)
	q.Set("api_key", s.APIKey)
	q.Set("num", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	var sr serpResponse
	if err := getJSON(ctx, s.HTTPClient, u.String(), "", &sr); err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}
	if sr.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", sr.Error)
	}
	out := make([]Result, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		if r.Link == "" || r.Title == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.Link),
			Snippet: strings.TrimSpace(r.Snippet),
			Source:  s.Name(),
		})
	}
	return out, nil
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
	} `json:"organic_results"`
}
