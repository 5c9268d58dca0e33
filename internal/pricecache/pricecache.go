// Package pricecache provides the latest-close lookup cache. It is injected
// as an explicit dependency rather than living as a process-global, and its
// invalidation is tied to successful sync completion for a symbol.
package pricecache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache caches the most recent close per symbol.
type Cache interface {
	LatestClose(symbol string) (float64, bool)
	SetLatestClose(symbol string, close float64)
	Invalidate(symbol string)
}

// TTLCache is the default Cache backed by an expiring in-memory store.
type TTLCache struct {
	c *gocache.Cache
}

// New creates a TTLCache whose entries expire after ttl.
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{c: gocache.New(ttl, 2*ttl)}
}

// LatestClose returns the cached close for symbol, if present and fresh.
func (t *TTLCache) LatestClose(symbol string) (float64, bool) {
	v, ok := t.c.Get(symbol)
	if !ok {
		return 0, false
	}
	close, ok := v.(float64)
	return close, ok
}

// SetLatestClose stores the close for symbol.
func (t *TTLCache) SetLatestClose(symbol string, close float64) {
	t.c.SetDefault(symbol, close)
}

// Invalidate drops the cached close for symbol.
func (t *TTLCache) Invalidate(symbol string) {
	t.c.Delete(symbol)
}
