package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	metaSuffix       = ".meta.json"
	bodySuffix       = ".body"
	completionSuffix = ".completion.json"
)

// Clear removes dir and everything below it, then recreates it empty.
func Clear(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeOlderThan removes page entries saved, and completions last used, more
// than maxAge ago. It returns the number of entries removed. Unreadable or
// malformed files are skipped.
func PurgeOlderThan(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, metaSuffix):
			b, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			var e PageEntry
			if err := json.Unmarshal(b, &e); err != nil {
				return nil
			}
			if now.Sub(e.SavedAt) <= maxAge {
				return nil
			}
			_ = os.Remove(path)
			_ = os.Remove(strings.TrimSuffix(path, metaSuffix) + bodySuffix)
			removed++
		case strings.HasSuffix(name, completionSuffix):
			info, err := d.Info()
			if err != nil || now.Sub(info.ModTime().UTC()) <= maxAge {
				return nil
			}
			_ = os.Remove(path)
			removed++
		}
		return nil
	})
	return removed, err
}
