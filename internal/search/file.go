package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider serves results from a local JSON array of
// {"title","url","snippet"} objects, for offline runs and tests. Entries whose
// title or snippet shares a word with the query are returned in file order;
// an empty query matches everything.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw []Result
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(query))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if !matchesAny(strings.ToLower(r.Title+" "+r.Snippet), words) {
			continue
		}
		r.Source = f.Name()
		r.Rank = 0
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matchesAny(haystack string, words []string) bool {
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
