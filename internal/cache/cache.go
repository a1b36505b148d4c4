// Package cache provides the TTL-bounded result cache in front of the
// ranking pipeline. Entries expire absolutely: a hit never refreshes the
// clock, so a stale corpus view cannot be kept alive by traffic.
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults for the search result cache.
const (
	DefaultSize = 512
	DefaultTTL  = 10 * time.Minute
)

// Cache is an LRU cache with per-entry TTL.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a cache holding up to size entries for at most ttl each.
// Non-positive arguments fall back to the defaults.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		lru: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores value under key, evicting the oldest entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry. Used by rebuild-and-swap flows so a fresh
// corpus is never shadowed by results from the old one.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// Key builds a cache key from the normalized query and the request
// parameters that change the response.
func Key(normalizedQuery string, topK int, parts ...string) string {
	var b strings.Builder
	b.WriteString(normalizedQuery)
	fmt.Fprintf(&b, "|k=%d", topK)
	for _, p := range parts {
		b.WriteByte('|')
		b.WriteString(p)
	}
	return b.String()
}
