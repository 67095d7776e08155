// Package article models the articles owned by the external content API and
// provides the HTTP client the pipeline uses to list and update them.
package article

import "time"

// Article is a published article as returned by the content API.
type Article struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	Description string `json:"description"`
	// OriginalDescription is the pre-rewrite body. The API stores it once and
	// the pipeline never sends it again after that.
	OriginalDescription string    `json:"original_description,omitempty"`
	Tags                []string  `json:"tags"`
	CreatedAt           time.Time `json:"createdAt,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt,omitempty"`
}

// HasSnapshot reports whether the original body has already been preserved.
func (a Article) HasSnapshot() bool {
	return a.OriginalDescription != ""
}

// Update is the body of a PUT against a single article.
type Update struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	OriginalDescription string   `json:"original_description,omitempty"`
	Tags                []string `json:"tags"`
}

// MergeTags returns existing extended with extra, keeping first-seen order and
// dropping duplicates and blank entries.
func MergeTags(existing []string, extra ...string) []string {
	out := make([]string, 0, len(existing)+len(extra))
	seen := make(map[string]struct{}, len(existing)+len(extra))
	for _, list := range [][]string{existing, extra} {
		for _, t := range list {
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
