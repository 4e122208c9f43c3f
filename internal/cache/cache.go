// Package cache stores downloaded remote modules on disk so repeated runs
// do not refetch them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// bump when Entry changes shape; older entries are treated as misses
const schemaVersion uint16 = 1

const defaultMemoryEntries = 256

// Entry is one cached HTTP response.
type Entry struct {
	Schema    uint16
	URL       string // final URL after redirects
	Headers   map[string]string
	Content   []byte
	FetchedAt time.Time
}

// DiskCache is a content store keyed by request URL. A small in-memory LRU
// sits in front of the files. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
	mem *lru.Cache[string, *Entry]
}

// DefaultDir returns $XDG_CACHE_HOME/<app> or ~/.cache/<app>.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open creates dir if needed and returns a cache rooted there.
func Open(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	mem, err := lru.New[string, *Entry](defaultMemoryEntries)
	if err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir, mem: mem}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Key hashes a request URL into a file name.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (c *DiskCache) pathFor(url string) string {
	key := Key(url)
	// two-level fan-out keeps directories small
	return filepath.Join(c.dir, "remote", key[:2], key+".mp")
}

// Put stores e under url. The write is atomic: readers see the old entry or
// the new one, never a partial file.
func (c *DiskCache) Put(url string, e *Entry) (err error) {
	if c == nil || e == nil {
		return nil
	}
	stored := *e
	stored.Schema = schemaVersion
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(url)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(&stored); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(f.Name(), p); err != nil {
		return err
	}
	c.mem.Add(url, &stored)
	return nil
}

// Get returns the entry for url. A missing, undecodable or stale-schema
// entry reports ok=false without error.
func (c *DiskCache) Get(url string) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	if e, ok := c.mem.Get(url); ok {
		return e, true, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(url))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		// truncated or corrupt file: refetch and let Put overwrite it
		return nil, false, nil
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	c.mem.Add(url, &e)
	return &e, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem.Purge()
	// переименовываем, чтобы параллельный Put не писал в наполовину удалённый каталог
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// Header returns a cached header value, matching names case-insensitively.
func (e *Entry) Header(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	if v, ok := e.Headers[name]; ok {
		return v, true
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
