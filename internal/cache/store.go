package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
)

// dirStore holds the on-disk location and permission policy shared by the
// page and completion caches.
type dirStore struct {
	Dir string
	// StrictPerms enforces 0700 on the cache directory and 0600 on files.
	StrictPerms bool
}

func (s dirStore) ensureDir() error {
	if s.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if s.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(s.Dir, perm); err != nil {
		return err
	}
	if s.StrictPerms {
		if info, err := os.Stat(s.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(s.Dir, 0o700)
		}
	}
	return nil
}

func (s dirStore) fileMode() os.FileMode {
	if s.StrictPerms {
		return 0o600
	}
	return 0o644
}

// writeAtomic writes data to a temp file next to path and renames it in place
// so readers never observe a partial entry.
func (s dirStore) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, s.fileMode()); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func digest(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("\n\n"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
