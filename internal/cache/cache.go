// Package cache is a small file-backed TTL cache. The scrapers use it
// to hold event-URL lists between refreshes so marketplace schedule
// pages are not re-fetched every sweep. Values are stored as raw JSON
// and decoded into the caller's type on read.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       time.Duration   `json:"ttl"`
}

// expired reports whether the entry's TTL has elapsed. TTL 0 means the
// entry never expires.
func (e entry) expired() bool {
	return e.TTL > 0 && time.Since(e.Timestamp) > e.TTL
}

// Cache maps string keys to JSON values with per-entry TTLs and writes
// through to a single JSON file on every mutation.
type Cache struct {
	path    string
	entries map[string]entry
	mu      sync.RWMutex
}

// New opens the cache at path, loading whatever a previous run left
// there. A corrupt or missing file starts the cache empty; cached
// scrape state is always re-derivable.
func New(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.entries); err != nil {
			c.entries = make(map[string]entry)
		}
	}
	return c, nil
}

// Get decodes the live entry for key into target. The second return is
// false on a miss or an expired entry; expired entries are dropped.
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		return false, nil
	}
	if !e.expired() {
		err := json.Unmarshal(e.Data, target)
		c.mu.RUnlock()
		if err != nil {
			return false, fmt.Errorf("unmarshal cache entry: %w", err)
		}
		return true, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	// Re-check under the write lock; a Put may have raced the upgrade.
	if e, ok := c.entries[key]; ok && e.expired() {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	return false, nil
}

// Put stores value under key with the given TTL (0 for no expiry) and
// flushes to disk.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = entry{
		Data:      data,
		Timestamp: time.Now(),
		TTL:       ttl,
	}
	c.mu.Unlock()

	return c.flush()
}

// Clear drops every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return c.flush()
}

// Remove drops one entry.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return c.flush()
}

func (c *Cache) flush() error {
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	return os.WriteFile(c.path, data, 0644)
}

// BuildKey joins key parts with a separator that cannot appear in app
// names or URLs' host parts.
func BuildKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// EventURLsKey keys the cached event-URL list scraped from a resale
// app's schedule page.
func EventURLsKey(app string) string {
	return BuildKey("eventurls", app)
}
