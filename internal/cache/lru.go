// Package cache provides caching utilities for body rendering.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// BodyCache provides thread-safe LRU caching of rendered bodies keyed by the
// raw text the dissector reported.
type BodyCache struct {
	cache *lru.Cache[string, string]
}

// NewBodyCache creates a new LRU cache with the specified maximum number of items.
func NewBodyCache(maxItems int) (*BodyCache, error) {
	c, err := lru.New[string, string](maxItems)
	if err != nil {
		return nil, err
	}
	return &BodyCache{cache: c}, nil
}

// Get retrieves a rendered body by its raw text. Empty bodies always miss.
func (c *BodyCache) Get(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	return c.cache.Get(raw)
}

// Put adds or updates a rendered body. Empty bodies are cheap to render and
// would only take a slot from real payloads, so they are not stored.
func (c *BodyCache) Put(raw, rendered string) {
	if raw == "" {
		return
	}
	c.cache.Add(raw, rendered)
}

// Len returns the current number of items in the cache.
func (c *BodyCache) Len() int {
	return c.cache.Len()
}
