// Package cache is a read-through, write-invalidate cache in front of the
// relationship repository. Every entry belongs to one region and one user id.
//
// Entries are addressed through a per-key generation counter:
//
//	cache:<region>:<id>:gen    -> N
//	cache:<region>:<id>:v<N>   -> JSON value
//
// Evict increments the generation. A loader that read the repository before
// a write can therefore only fill a key that is never read again, so a stale
// value cannot outlive the eviction that followed the write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/HammerMeetNail/socialcore/internal/logging"
)

const (
	RegionFriendList      = "friendList"
	RegionPendingRequests = "pendingRequests"
	RegionUnreadCount     = "unreadCount"
)

// DefaultTTLs mirrors the expiry of each region.
var DefaultTTLs = map[string]time.Duration{
	RegionFriendList:      15 * time.Minute,
	RegionPendingRequests: 5 * time.Minute,
	RegionUnreadCount:     time.Minute,
}

type Cache struct {
	store Store
	ttls  map[string]time.Duration
	group singleflight.Group
}

// New returns a cache over store. Regions missing from ttls use DefaultTTLs.
func New(store Store, ttls map[string]time.Duration) *Cache {
	merged := make(map[string]time.Duration, len(DefaultTTLs))
	for k, v := range DefaultTTLs {
		merged[k] = v
	}
	for k, v := range ttls {
		if v > 0 {
			merged[k] = v
		}
	}
	return &Cache{store: store, ttls: merged}
}

func (c *Cache) ttl(region string) time.Duration {
	if d, ok := c.ttls[region]; ok {
		return d
	}
	return time.Minute
}

func generationKey(region string, id int64) string {
	return fmt.Sprintf("cache:%s:%d:gen", region, id)
}

func valueKey(region string, id int64, gen string) string {
	return fmt.Sprintf("cache:%s:%d:v%s", region, id, gen)
}

// GetOrLoad returns the cached value for (region, id) or calls load and
// stores its result. Concurrent misses for the same key share one load.
// When the store is unreachable the loader is called directly; its errors
// are always returned unchanged.
func GetOrLoad[T any](ctx context.Context, c *Cache, region string, id int64, load func(context.Context) (T, error)) (T, error) {
	var zero T

	gen, err := c.generation(ctx, region, id)
	if err != nil {
		requestsTotal.WithLabelValues(region, resultError).Inc()
		logging.Warn("Cache generation lookup failed", map[string]interface{}{"error": err.Error(), "region": region, "id": id})
		return load(ctx)
	}

	key := valueKey(region, id, gen)
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal([]byte(raw), &v); jsonErr == nil {
			requestsTotal.WithLabelValues(region, resultHit).Inc()
			return v, nil
		}
		// Undecodable entries are treated as a miss and overwritten.
	case errors.Is(err, ErrMiss):
	default:
		requestsTotal.WithLabelValues(region, resultError).Inc()
		logging.Warn("Cache read failed", map[string]interface{}{"error": err.Error(), "region": region, "id": id})
		return load(ctx)
	}

	requestsTotal.WithLabelValues(region, resultMiss).Inc()

	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding cache value: %w", err)
		}
		if err := c.store.Set(ctx, key, data, c.ttl(region)); err != nil {
			logging.Warn("Cache fill failed", map[string]interface{}{"error": err.Error(), "region": region, "id": id})
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}

	// Each caller decodes its own copy so shared loads never alias.
	var v T
	if err := json.Unmarshal(data.([]byte), &v); err != nil {
		return zero, fmt.Errorf("decoding cache value: %w", err)
	}
	return v, nil
}

func (c *Cache) generation(ctx context.Context, region string, id int64) (string, error) {
	gen, err := c.store.Get(ctx, generationKey(region, id))
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	if _, err := strconv.ParseInt(gen, 10, 64); err != nil {
		return "", fmt.Errorf("invalid cache generation %q", gen)
	}
	return gen, nil
}

// Evict invalidates the entries of region for every id. All ids are
// attempted; the returned error joins the individual failures.
func (c *Cache) Evict(ctx context.Context, region string, ids ...int64) error {
	var errs []error
	for _, id := range ids {
		if _, err := c.store.Incr(ctx, generationKey(region, id)); err != nil {
			logging.Error("Failed to evict cache entry", map[string]interface{}{"error": err.Error(), "region": region, "id": id})
			errs = append(errs, fmt.Errorf("evicting %s:%d: %w", region, id, err))
			continue
		}
		evictionsTotal.WithLabelValues(region).Inc()
	}
	return errors.Join(errs...)
}
