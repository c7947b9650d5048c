package datecache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"isbndate/internal/fileutil"
	"isbndate/internal/isbn"
	"isbndate/internal/logging"
	"isbndate/internal/services"
)

const (
	lockTimeout    = 5 * time.Second
	lockRetryDelay = 50 * time.Millisecond
)

// Entry is one cached identifier and its date.
type Entry struct {
	ISBN string `json:"isbn"`
	Date string `json:"date"`
}

// Cache provides thread-safe access to the date cache.
type Cache struct {
	path      string
	logger    *slog.Logger
	lock      *flock.Flock
	mu        sync.RWMutex
	entries   map[string]string
	unflushed int
}

// Load reads the cache file at path. A missing or empty file yields an empty
// map. A file that cannot be read or parsed yields an empty map together with
// an error wrapping services.ErrCacheCorruption.
func Load(path string) (map[string]string, error) {
	entries := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return entries, services.Wrap(services.ErrCacheCorruption, "datecache", "load", "read cache file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		return entries, services.Wrap(services.ErrCacheCorruption, "datecache", "load", "parse cache file", err)
	}
	for key, value := range decoded {
		entries[key] = value
	}
	return entries, nil
}

// Open loads the cache at path. It never fails: a corrupt file is logged and
// replaced by an empty cache on the next flush. An empty path yields a
// memory-only cache whose Flush is a no-op.
func Open(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "datecache")
	c := &Cache{
		path:    strings.TrimSpace(path),
		logger:  logger,
		entries: make(map[string]string),
	}
	if c.path == "" {
		return c
	}
	c.lock = flock.New(c.path + ".lock")

	entries, err := Load(c.path)
	if err != nil {
		logging.WarnWithContext(logger, "failed to load date cache",
			"datecache_load_failed",
			logging.Error(err),
			logging.String("path", c.path),
			logging.String(logging.FieldErrorHint, "inspect or delete the cache file; it will be rewritten on the next flush"),
			logging.String(logging.FieldImpact, "previously resolved dates will be fetched again"))
	}
	c.entries = entries
	logger.Debug("loaded date cache",
		logging.Int("entry_count", len(entries)),
		logging.String("path", c.path))
	return c
}

// Path returns the backing file, or "" for a memory-only cache.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached date for a canonical identifier.
func (c *Cache) Get(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[id]
	return value, ok
}

// Put stores a date in memory. It is persisted by the next Flush.
func (c *Cache) Put(id, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = value
	c.unflushed++
}

// Remove deletes an entry and reports whether it existed.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	c.unflushed++
	return true
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return
	}
	c.entries = make(map[string]string)
	c.unflushed++
}

// Count returns the number of entries.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Unflushed returns the number of mutations since the last successful flush.
func (c *Cache) Unflushed() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unflushed
}

// Entries returns every entry sorted by identifier.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedEntries(c.entries, func(string) bool { return true })
}

// Search returns entries whose identifier contains term. Separators in term
// are ignored.
func (c *Cache) Search(term string) []Entry {
	needle := isbn.Clean(term)
	if needle == "" {
		needle = strings.TrimSpace(term)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedEntries(c.entries, func(key string) bool {
		return strings.Contains(key, needle)
	})
}

// Flush writes the whole mapping to disk. Two flushes with no mutation in
// between produce byte-identical files.
func (c *Cache) Flush() error {
	if c.path == "" {
		c.mu.Lock()
		c.unflushed = 0
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := encode(c.entries)
	if err != nil {
		return services.Wrap(services.ErrStorage, "datecache", "flush", "encode cache", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "datecache", "flush", "create cache directory", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("lock held by another process")
		}
		return services.Wrap(services.ErrStorage, "datecache", "flush", "acquire cache lock", err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Debug("release cache lock failed", logging.Error(err))
		}
	}()

	if err := fileutil.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "datecache", "flush", "write cache file", err)
	}
	c.logger.Debug("flushed date cache",
		logging.Int("entry_count", len(c.entries)),
		logging.Int("mutations", c.unflushed))
	c.unflushed = 0
	return nil
}

func encode(entries map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedEntries(entries map[string]string, keep func(string) bool) []Entry {
	out := make([]Entry, 0, len(entries))
	for key, value := range entries {
		if keep(key) {
			out = append(out, Entry{ISBN: key, Date: value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ISBN < out[j].ISBN
	})
	return out
}
