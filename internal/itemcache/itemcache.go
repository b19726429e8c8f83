// Package itemcache keeps the vault item list on disk between runs so the
// menu opens without waiting for bw. Passwords and TOTP seeds are stripped
// before anything is written.
package itemcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zach-source/bwrofi/internal/util"
	"github.com/zach-source/bwrofi/internal/vault"
)

const (
	ItemsFile = "items.json"
	MetaFile  = "items.metadata"
)

// Metadata describes the cached item list.
type Metadata struct {
	Time  int64 `json:"time"` // unix seconds
	Count int   `json:"count"`
}

type Cache struct {
	mu     sync.RWMutex
	dir    string
	expiry time.Duration
	meta   *Metadata
	now    func() time.Time
	hits   int64
	misses int64
}

// New opens the cache in dir. days <= 0 disables caching. Metadata is
// read only when both the items and metadata files exist.
func New(dir string, days int) (*Cache, error) {
	c := &Cache{
		dir:    dir,
		expiry: time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
	}
	if !c.Enabled() {
		return c, nil
	}
	if dir == "" {
		return nil, errors.New("item cache directory is required")
	}

	meta, err := readMeta(c.metaPath(), c.itemsPath())
	if err != nil {
		return nil, err
	}
	c.meta = meta
	return c, nil
}

func readMeta(metaPath, itemsPath string) (*Metadata, error) {
	if !fileExists(metaPath) || !fileExists(itemsPath) {
		return nil, nil
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("read cache metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode cache metadata %s: %w", metaPath, err)
	}
	return &m, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func (c *Cache) itemsPath() string { return filepath.Join(c.dir, ItemsFile) }
func (c *Cache) metaPath() string  { return filepath.Join(c.dir, MetaFile) }

func (c *Cache) Enabled() bool { return c.expiry > 0 }

// Age returns how old the cached list is, or false if nothing is cached.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.meta == nil {
		return 0, false
	}
	return c.now().Sub(time.Unix(c.meta.Time, 0)), true
}

// Fresh reports whether the cache is enabled, holds items and has not
// expired.
func (c *Cache) Fresh() bool {
	if !c.Enabled() {
		return false
	}
	age, ok := c.Age()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ok && c.meta.Count > 0 && age < c.expiry
}

// Load reads the cached items.
func (c *Cache) Load() ([]vault.Item, error) {
	data, err := os.ReadFile(c.itemsPath())
	if err != nil {
		c.incMiss()
		return nil, fmt.Errorf("read cached items: %w", err)
	}
	var items []vault.Item
	if err := json.Unmarshal(data, &items); err != nil {
		c.incMiss()
		return nil, fmt.Errorf("decode cached items: %w", err)
	}
	c.incHit()
	return items, nil
}

// Save writes sanitized copies of items and fresh metadata, both 0600.
// It is a no-op when caching is disabled.
func (c *Cache) Save(items []vault.Item) error {
	if !c.Enabled() {
		return nil
	}

	clean := make([]vault.Item, len(items))
	for i, it := range items {
		clean[i] = it.Sanitized()
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	meta := Metadata{Time: c.now().Unix(), Count: len(items)}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode cache metadata: %w", err)
	}

	if err := util.WriteFilePrivate(c.itemsPath(), data); err != nil {
		return fmt.Errorf("write cached items: %w", err)
	}
	if err := util.WriteFilePrivate(c.metaPath(), metaData); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}

	c.mu.Lock()
	c.meta = &meta
	c.mu.Unlock()
	return nil
}

// Stats returns the number of cached items and the hit/miss counters.
func (c *Cache) Stats() (count int, hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.meta != nil {
		count = c.meta.Count
	}
	return count, c.hits, c.misses
}

func (c *Cache) incHit()  { c.mu.Lock(); c.hits++; c.mu.Unlock() }
func (c *Cache) incMiss() { c.mu.Lock(); c.misses++; c.mu.Unlock() }
