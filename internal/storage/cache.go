package storage

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// DefaultCacheTTL is used when NewCachedAdapter receives a non-positive TTL.
const DefaultCacheTTL = 30 * time.Second

type cacheValue struct {
	Value string
	Found bool
}

// CachedAdapter is a read-through TTL cache in front of another Adapter.
// Misses are cached too so repeated hydrations of unset slots stay off the
// network. Read errors are never cached. Writes go through to the inner
// adapter and refresh the cached entry on success.
type CachedAdapter struct {
	inner ports.Adapter
	cache *ttlcache.Cache[string, cacheValue]
}

// NewCachedAdapter wraps inner with a cache of the given TTL. Call Close to
// stop the expiry goroutine.
func NewCachedAdapter(inner ports.Adapter, ttl time.Duration) *CachedAdapter {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, cacheValue](ttl),
	)
	go cache.Start()
	return &CachedAdapter{inner: inner, cache: cache}
}

// GetItem implements ports.Adapter.
func (a *CachedAdapter) GetItem(ctx context.Context, key string) (string, bool, error) {
	if item := a.cache.Get(key); item != nil {
		v := item.Value()
		return v.Value, v.Found, nil
	}

	value, found, err := a.inner.GetItem(ctx, key)
	if err != nil {
		return "", false, err
	}
	a.cache.Set(key, cacheValue{Value: value, Found: found}, ttlcache.DefaultTTL)
	return value, found, nil
}

// SetItem implements ports.Adapter.
func (a *CachedAdapter) SetItem(ctx context.Context, key, value string) error {
	if err := a.inner.SetItem(ctx, key, value); err != nil {
		a.cache.Delete(key)
		return err
	}
	a.cache.Set(key, cacheValue{Value: value, Found: true}, ttlcache.DefaultTTL)
	return nil
}

// Invalidate drops every cached entry, e.g. before an explicit reload.
func (a *CachedAdapter) Invalidate() {
	a.cache.DeleteAll()
}

// Close stops the cache background goroutine.
func (a *CachedAdapter) Close() {
	a.cache.Stop()
}

var _ ports.Adapter = (*CachedAdapter)(nil)
