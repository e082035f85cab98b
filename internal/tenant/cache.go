package tenant

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// CachedStore wraps a Store with a Redis read-through cache for the hot
// lookups (custom domain and subdomain). Tenant records change rarely, so
// a short TTL keeps the resolver off the database for the common case.
// Cache failures are logged and fall through to the inner store — Redis
// being down must never break resolution.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps inner with a Redis cache. A nil client or
// non-positive TTL disables caching entirely.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration) Store {
	if client == nil || ttl <= 0 {
		return inner
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl}
}

func (c *CachedStore) cached(ctx context.Context, key string, load func() (string, error)) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return val, nil
	}
	if err != redis.Nil {
		logger.Debug("tenant cache read failed", "key", key, "error", err)
	}

	id, err := load()
	if err != nil {
		return "", err
	}
	// Only positive hits are cached; misses stay cheap to retry and a
	// freshly verified domain resolves without waiting out a TTL.
	if id != "" {
		if err := c.client.Set(ctx, key, id, c.ttl).Err(); err != nil {
			logger.Debug("tenant cache write failed", "key", key, "error", err)
		}
	}
	return id, nil
}

// WeddingIDByDomain resolves through the cache keyed on the first
// candidate host (the raw request host).
func (c *CachedStore) WeddingIDByDomain(ctx context.Context, hosts ...string) (string, error) {
	if len(hosts) == 0 {
		return "", nil
	}
	return c.cached(ctx, "tenant:domain:"+hosts[0], func() (string, error) {
		return c.inner.WeddingIDByDomain(ctx, hosts...)
	})
}

// WeddingIDBySubdomain resolves through the cache.
func (c *CachedStore) WeddingIDBySubdomain(ctx context.Context, subdomain string) (string, error) {
	return c.cached(ctx, "tenant:subdomain:"+subdomain, func() (string, error) {
		return c.inner.WeddingIDBySubdomain(ctx, subdomain)
	})
}

// WeddingIDBySlug is not cached: path routing is the rarest strategy.
func (c *CachedStore) WeddingIDBySlug(ctx context.Context, slug string) (string, error) {
	return c.inner.WeddingIDBySlug(ctx, slug)
}

// IsOwner is never cached: authorization checks must see revocations
// immediately.
func (c *CachedStore) IsOwner(ctx context.Context, weddingID, customerID string) (bool, error) {
	return c.inner.IsOwner(ctx, weddingID, customerID)
}
