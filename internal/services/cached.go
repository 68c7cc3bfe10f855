package services

import (
	"context"

	"github.com/HammerMeetNail/socialcore/internal/cache"
)

// cached reads through c, or calls load directly when caching is disabled.
func cached[T any](ctx context.Context, c *cache.Cache, region string, id int64, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	return cache.GetOrLoad(ctx, c, region, id, load)
}

// evict runs after the owning write has committed. Failures are logged by
// the cache and do not fail the write.
func evict(ctx context.Context, c *cache.Cache, region string, ids ...int64) {
	if c == nil {
		return
	}
	// Evict has already logged the joined error.
	_ = c.Evict(ctx, region, ids...)
}
