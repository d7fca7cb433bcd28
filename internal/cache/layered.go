package cache

import (
	"os"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

// LayeredCache puts an in-process layer in front of the optional disk archive
type LayeredCache struct {
	memory    *MemoryCache
	memoryTTL time.Duration
	disk      *DiskCache
}

// NewLayeredCache creates a new layered cache.
// An empty diskDir gives a memory-only cache.
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	c := &LayeredCache{
		memory:    NewMemoryCache(memoryTTL, 10*time.Minute),
		memoryTTL: memoryTTL,
	}
	if diskDir != "" {
		c.disk = NewDiskCache(diskDir, diskTTL)
	}
	return c
}

// NewFromConfig builds the result cache described by the configuration, or nil when disabled
func NewFromConfig(cfg model.CacheConfig) *Results {
	if !cfg.Enabled {
		return nil
	}
	return NewResults(NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), cfg.DiskTTL)
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	// Check memory cache first
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if c.disk == nil {
		return nil, false
	}

	// Check disk cache
	if val, found := c.disk.Get(key); found {
		// Promote to memory cache with the memory default TTL
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both caches. ttl governs the disk entry; the memory
// entry keeps the memory TTL unless ttl is shorter.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, c.memoryEntryTTL(ttl)); err != nil {
		return err
	}

	if c.disk == nil {
		return nil
	}
	return c.disk.Set(key, value, ttl)
}

// memoryEntryTTL picks the memory lifetime for an entry stored with ttl; 0 means the memory default
func (c *LayeredCache) memoryEntryTTL(ttl time.Duration) time.Duration {
	if ttl > 0 && (c.memoryTTL <= 0 || ttl < c.memoryTTL) {
		return ttl
	}
	return 0
}

// Delete removes a value from both caches
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	if c.disk != nil {
		if err := c.disk.Delete(key); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Clear removes all values from both caches
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}

// Prune drops expired entries from both layers
func (c *LayeredCache) Prune() (int, error) {
	removed := c.memory.Prune()
	if c.disk == nil {
		return removed, nil
	}
	n, err := c.disk.Prune()
	return removed + n, err
}
