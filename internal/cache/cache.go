// Package cache provides the process-lifetime result memo shared by all tools.
//
// Entries are never evicted, updated in place, or expired: the first
// successful result for a key is served until the process exits. A cache
// built with enabled=false is a pass-through: Has always reports a miss and
// Set discards the value.
package cache

import (
	"strings"
	"sync"
)

// KeySeparator joins key parts. Parts must not contain it.
const KeySeparator = ":"

// ResultCache is a concurrency-safe key/value memo.
// Concurrent Set calls for the same key are last-writer-wins.
type ResultCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	enabled bool
}

// New creates a ResultCache. The enabled flag is fixed for the cache's lifetime.
func New[V any](enabled bool) *ResultCache[V] {
	return &ResultCache[V]{
		entries: make(map[string]V),
		enabled: enabled,
	}
}

// Enabled reports whether the cache stores anything.
func (c *ResultCache[V]) Enabled() bool {
	return c.enabled
}

// Has reports whether key holds a value. Always false when disabled.
func (c *ResultCache[V]) Has(key string) bool {
	if !c.enabled {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Get returns the value stored under key and whether it was present.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.enabled {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores value under key. No-op when disabled.
func (c *ResultCache[V]) Set(key string, value V) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
}

// Len returns the number of stored entries.
func (c *ResultCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ResultCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]V)
	c.mu.Unlock()
}

// Key joins the ordered parts into a cache key, e.g. Key("lineage", "ds", "t")
// yields "lineage:ds:t". Callers keep argument order fixed per tool.
func Key(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}
