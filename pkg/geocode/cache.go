package geocode

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/model"
)

// FileCache is a whole-file JSON map of raw query string to resolved
// location. It is loaded fully at construction and rewritten fully on every
// Put. Concurrent writers from separate processes race last-writer-wins;
// within a process a mutex serializes access. A missing or corrupt file
// starts the cache empty rather than failing.
type FileCache struct {
	path string

	mu      sync.Mutex
	entries map[string]model.ResolvedLocation
}

// NewFileCache loads the cache at path, tolerating absence and corruption.
func NewFileCache(path string) *FileCache {
	c := &FileCache{
		path:    path,
		entries: make(map[string]model.ResolvedLocation),
	}
	c.load()
	return c
}

func (c *FileCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("geocode cache unreadable, starting empty",
				zap.String("path", c.path), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		zap.L().Warn("geocode cache corrupt, starting empty",
			zap.String("path", c.path), zap.Error(err))
		c.entries = make(map[string]model.ResolvedLocation)
	}
}

// Get returns the cached location for the exact query string.
func (c *FileCache) Get(query string) (model.ResolvedLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	loc, ok := c.entries[query]
	if ok {
		loc.Query = query
	}
	return loc, ok
}

// Put stores the location under the exact query string and rewrites the
// cache file.
func (c *FileCache) Put(query string, loc model.ResolvedLocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = loc
	return c.flush()
}

// Len reports the number of cached entries.
func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// flush rewrites the whole file through a temp file and rename, so a crash
// mid-write cannot truncate entries already on disk.
func (c *FileCache) flush() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "geocode: create cache dir")
	}

	data, err := json.Marshal(c.entries)
	if err != nil {
		return eris.Wrap(err, "geocode: encode cache")
	}

	tmp, err := os.CreateTemp(dir, ".geocache-*")
	if err != nil {
		return eris.Wrap(err, "geocode: create temp cache")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmpName)    //nolint:errcheck
		return eris.Wrap(err, "geocode: write cache")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "geocode: close cache")
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "geocode: replace cache")
	}
	return nil
}
