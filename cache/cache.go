// Package cache implements the persistent translation cache: a flat,
// human-readable JSON object mapping masked source text to masked translated
// text.
//
// Keys and values always hold masked text (formatting tokens already replaced
// by markers), never raw literals. That keeps cache hits immune to
// formatting-token drift: two literals that differ only in a color code mask
// to the same key.
//
// A missing cache file means an empty cache. An unparseable one is a setup
// error the operator must resolve; it is never silently discarded, because
// discarding it would re-spend every past network call.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cache is a persistent masked-text → masked-translation store.
// Entries are only ever added or updated, never deleted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	path    string
	dirty   bool
}

// Load reads the cache file at path. A missing file yields an empty cache;
// a corrupt file is an error.
func Load(path string) (*Cache, error) {
	c := &Cache{
		entries: make(map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("cache %s is corrupt: %w", path, err)
	}

	return c, nil
}

// Get returns the cached translation for key, if present.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores or updates a translation.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[key]; ok && old == value {
		return
	}
	c.entries[key] = value
	c.dirty = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Flush writes the cache to disk if it has unsaved entries. The write goes
// through a temp file and rename, so an interrupted flush never corrupts the
// previous cache file.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache %s: %w", c.path, err)
	}

	c.dirty = false
	return nil
}
