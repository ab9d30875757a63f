package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps entries as <sha256(key)>.json files in Dir. Each file holds
// the value and its absolute expiry, so entries survive restarts and expire
// without a background process. PurgeExpired reclaims disk space.
type FileStore struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the directory and 0600 on
	// files.
	StrictPerms bool

	now func() time.Time
}

type fileEntry struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

func (c *FileStore) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *FileStore) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *FileStore) pathFor(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.Dir, hex.EncodeToString(h[:])+".json")
}

// Get returns the value for key if present and not expired. Expired files
// are removed on read. A hit touches the file mtime so EnforceMaxEntries
// evicts least recently used entries first.
func (c *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var e fileEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache file: %w", err)
	}
	if !c.clock().Before(e.ExpiresAt) {
		_ = os.Remove(p)
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e.Value, true, nil
}

// Set writes value atomically via a temp file and rename.
func (c *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	b, err := json.Marshal(fileEntry{Key: key, ExpiresAt: c.clock().Add(effectiveTTL(ttl)).UTC(), Value: value})
	if err != nil {
		return err
	}
	return writeFileAtomic(c.pathFor(key), b, c.fileMode())
}

func (c *FileStore) fileMode() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
