// Package cache provides a small in-memory memoization cache for dashboard
// query results, keyed on the stringified argument tuple of the request.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry holds a cached value and its expiry.
type entry struct {
	value    interface{}
	storedAt time.Time
	expires  time.Time
}

// Cache is a TTL-bounded memo cache with a maximum entry count. When full,
// the oldest entry is evicted first. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int

	now func() time.Time // overridable in tests
}

// New creates a cache with the given TTL and entry bound. A non-positive
// maxEntries disables the bound.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key builds a cache key from an operation name and its argument values.
// Map arguments are flattened in sorted key order so equal tuples always
// produce equal keys.
func Key(op string, args ...interface{}) string {
	var b strings.Builder
	b.WriteString(op)
	for _, a := range args {
		b.WriteByte('|')
		switch v := a.(type) {
		case map[string]string:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for i, k := range keys {
				if i > 0 {
					b.WriteByte(',')
				}
				fmt.Fprintf(&b, "%s=%s", k, v[k])
			}
		case []int:
			for i, n := range v {
				if i > 0 {
					b.WriteByte(',')
				}
				fmt.Fprintf(&b, "%d", n)
			}
		case time.Time:
			if v.IsZero() {
				b.WriteByte('-')
			} else {
				b.WriteString(v.Format("2006-01-02"))
			}
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

// Get returns the cached value for a key if present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value under a key, evicting the oldest entry when the cache
// is at capacity.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	now := c.now()
	c.entries[key] = &entry{
		value:    value,
		storedAt: now,
		expires:  now.Add(c.ttl),
	}
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
