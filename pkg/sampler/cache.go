package sampler

import (
	"strconv"
	"strings"
	"sync"
)

// Cache memoizes connection samples per (model hash, pair index, unit
// counts). Entries
// are never recomputed until [Cache.Invalidate] drops the model, so weights
// stay stable across frames.
type Cache struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]Connection
}

// NewCache returns an empty cache with the given per-pair limit. limit <= 0
// selects DefaultCap.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCap
	}
	return &Cache{limit: limit, entries: make(map[string][]Connection)}
}

// Cap returns the per-pair limit.
func (c *Cache) Cap() int { return c.limit }

// Get returns the samples for one layer pair, computing them on first use.
// The returned slice is shared and must not be modified.
func (c *Cache) Get(modelHash string, seed uint64, pair, src, dst int) []Connection {
	key := modelHash + "/" + strconv.Itoa(pair) + "/" + strconv.Itoa(src) + "x" + strconv.Itoa(dst)
	c.mu.Lock()
	defer c.mu.Unlock()
	if conns, ok := c.entries[key]; ok {
		return conns
	}
	conns := Sample(src, dst, c.limit, PairSeed(seed, pair))
	c.entries[key] = conns
	return conns
}

// Invalidate drops all entries for a model. An empty hash clears everything.
func (c *Cache) Invalidate(modelHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if modelHash == "" {
		clear(c.entries)
		return
	}
	prefix := modelHash + "/"
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
