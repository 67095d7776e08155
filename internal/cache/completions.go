package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// CompletionCache stores model completions keyed by model name and prompt so
// a re-run over the same inputs does not pay for the same rewrite twice.
type CompletionCache struct {
	Dir         string
	StrictPerms bool
}

// CompletionKey derives the cache key for a model/prompt pair.
func CompletionKey(model, prompt string) string {
	return digest(model, prompt)
}

func (c *CompletionCache) path(key string) string {
	return filepath.Join(c.Dir, key+completionSuffix)
}

// Get returns the cached completion, reporting ok=false on a miss.
func (c *CompletionCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	if err := (dirStore{Dir: c.Dir, StrictPerms: c.StrictPerms}).ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.path(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// mtime doubles as last-access time for age purging
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Put writes a completion to the cache.
func (c *CompletionCache) Put(_ context.Context, key string, data []byte) error {
	s := dirStore{Dir: c.Dir, StrictPerms: c.StrictPerms}
	if err := s.ensureDir(); err != nil {
		return err
	}
	return s.writeAtomic(c.path(key), data)
}
