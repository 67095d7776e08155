package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageEntry is the metadata kept next to a cached page body. ETag and
// LastModified drive conditional revalidation.
type PageEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores fetched page bodies as <sha256(url)>.body with a
// <sha256(url)>.meta.json sidecar. There is no eviction beyond PurgeOlderThan.
type PageCache struct {
	Dir         string
	StrictPerms bool
}

func (c *PageCache) store() dirStore { return dirStore{Dir: c.Dir, StrictPerms: c.StrictPerms} }

func (c *PageCache) paths(url string) (meta, body string) {
	key := digest(url)
	return filepath.Join(c.Dir, key+metaSuffix), filepath.Join(c.Dir, key+bodySuffix)
}

// Lookup returns the stored metadata for url, or an error when absent.
func (c *PageCache) Lookup(_ context.Context, url string) (*PageEntry, error) {
	if c == nil {
		return nil, os.ErrNotExist
	}
	if err := c.store().ensureDir(); err != nil {
		return nil, err
	}
	meta, _ := c.paths(url)
	b, err := os.ReadFile(meta)
	if err != nil {
		return nil, err
	}
	var e PageEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// Body returns the cached body for url.
func (c *PageCache) Body(_ context.Context, url string) ([]byte, error) {
	if c == nil {
		return nil, os.ErrNotExist
	}
	_, body := c.paths(url)
	return os.ReadFile(body)
}

// Store writes the body first and then the metadata, so a present meta file
// always has a matching body.
func (c *PageCache) Store(_ context.Context, e PageEntry, body []byte) error {
	s := c.store()
	if err := s.ensureDir(); err != nil {
		return err
	}
	metaPath, bodyPath := c.paths(e.URL)
	if err := s.writeAtomic(bodyPath, body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := s.writeAtomic(metaPath, b); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}
