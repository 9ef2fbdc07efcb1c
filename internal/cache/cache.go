// Package cache provides the in-process TTL cache that fronts every
// catalog request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window when none is configured.
const DefaultTTL = 5 * time.Minute

// DefaultMaxEntries limits the number of cached keys (LRU eviction).
const DefaultMaxEntries = 256

// Config contains configuration for a cache instance.
type Config struct {
	TTL        time.Duration    // Freshness window for every entry
	MaxEntries int              // Max cache entries (0 = default)
	Now        func() time.Time // Clock, replaceable in tests
}

// Status describes how a value was served, for Cache-Status reporting.
type Status struct {
	Hit bool          // Served from a fresh entry
	TTL time.Duration // Remaining freshness of the entry
}

// Cache is a fixed-TTL key/value store with LRU eviction.
// Values are shared between callers and must be treated as read-only.
// Failed loads are never stored.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]*entry[V]
	accessList []string // LRU tracking: most recent at end
	config     Config
	group      singleflight.Group
}

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// New creates a cache. Zero config fields take defaults.
func New[V any](config Config) *Cache[V] {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Cache[V]{
		entries:    make(map[string]*entry[V]),
		accessList: make([]string, 0, config.MaxEntries),
		config:     config,
	}
}

// Key builds a cache key from a prefix and the JSON form of params.
// Struct fields serialize in declaration order, so equal params give
// equal keys.
func Key(prefix string, params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", prefix, params)
	}
	return prefix + ":" + string(b)
}

// TTL returns the configured freshness window.
func (c *Cache[V]) TTL() time.Duration {
	return c.config.TTL
}

// IsValid reports whether key holds an entry younger than the TTL.
func (c *Cache[V]) IsValid(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && c.fresh(e)
}

// Get returns the value for key if it is still fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, _, ok := c.lookup(key)
	return v, ok
}

// Set stores value under key, overwriting any previous entry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictOldest()
	}
	c.entries[key] = &entry[V]{value: value, createdAt: c.config.Now()}
	c.recordAccessLocked(key)
}

// GetOrLoad returns the fresh value for key, or calls load and stores its
// result. Concurrent misses for the same key share a single load. The
// shared load runs detached from any one caller's cancellation; a caller
// whose ctx ends stops waiting and gets ctx.Err().
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, Status, error) {
	if v, remaining, ok := c.lookup(key); ok {
		return v, Status{Hit: true, TTL: remaining}, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// Another flight may have filled the entry while we waited.
		if v, _, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, Status{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, Status{}, res.Err
		}
		return res.Val.(V), Status{TTL: c.config.TTL}, nil
	}
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all cached entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
	c.accessList = make([]string, 0, c.config.MaxEntries)
}

func (c *Cache[V]) lookup(key string) (V, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		var zero V
		return zero, 0, false
	}
	c.recordAccessLocked(key)
	return e.value, c.config.TTL - c.config.Now().Sub(e.createdAt), true
}

func (c *Cache[V]) fresh(e *entry[V]) bool {
	return c.config.Now().Sub(e.createdAt) < c.config.TTL
}

func (c *Cache[V]) recordAccessLocked(key string) {
	for i, k := range c.accessList {
		if k == key {
			c.accessList = append(c.accessList[:i], c.accessList[i+1:]...)
			break
		}
	}
	c.accessList = append(c.accessList, key)
}

func (c *Cache[V]) evictOldest() {
	if len(c.accessList) == 0 {
		return
	}
	oldest := c.accessList[0]
	c.accessList = c.accessList[1:]
	delete(c.entries, oldest)
}
