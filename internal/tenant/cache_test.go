package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, inner Store, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedStore(inner, client, ttl), mr
}

func TestCachedStoreDomainHit(t *testing.T) {
	inner := &fakeStore{domains: map[string]string{"janeandsam.com": "w-jane"}}
	cached, _ := newTestCache(t, inner, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		id, err := cached.WeddingIDByDomain(ctx, "janeandsam.com")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if id != "w-jane" {
			t.Fatalf("lookup %d: got %q, want w-jane", i, id)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner store called %d times, want 1", inner.calls)
	}
}

func TestCachedStoreMissNotCached(t *testing.T) {
	inner := &fakeStore{}
	cached, _ := newTestCache(t, inner, time.Minute)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		id, err := cached.WeddingIDBySubdomain(ctx, "ghost")
		if err != nil {
			t.Fatal(err)
		}
		if id != "" {
			t.Fatalf("got %q, want miss", id)
		}
	}
	// Misses stay uncached so a freshly created tenant resolves promptly.
	if inner.calls != 2 {
		t.Errorf("inner store called %d times, want 2", inner.calls)
	}
}

func TestCachedStoreTTLExpiry(t *testing.T) {
	inner := &fakeStore{subdomains: map[string]string{"acme": "w-acme"}}
	cached, mr := newTestCache(t, inner, time.Minute)

	ctx := context.Background()
	if _, err := cached.WeddingIDBySubdomain(ctx, "acme"); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cached.WeddingIDBySubdomain(ctx, "acme"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner store called %d times after TTL expiry, want 2", inner.calls)
	}
}

func TestCachedStoreRedisDownFallsThrough(t *testing.T) {
	inner := &fakeStore{domains: map[string]string{"janeandsam.com": "w-jane"}}
	cached, mr := newTestCache(t, inner, time.Minute)
	mr.Close()

	id, err := cached.WeddingIDByDomain(context.Background(), "janeandsam.com")
	if err != nil {
		t.Fatalf("lookup with redis down: %v", err)
	}
	if id != "w-jane" {
		t.Errorf("got %q, want w-jane", id)
	}
}

func TestCachedStoreOwnershipNeverCached(t *testing.T) {
	inner := &fakeStore{owners: map[string]bool{"w-acme/cust-1": true}}
	cached, _ := newTestCache(t, inner, time.Minute)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		owned, err := cached.IsOwner(ctx, "w-acme", "cust-1")
		if err != nil {
			t.Fatal(err)
		}
		if !owned {
			t.Fatal("expected ownership")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner store called %d times, want 2 (no caching)", inner.calls)
	}
}

func TestNewCachedStoreDisabled(t *testing.T) {
	inner := &fakeStore{}
	if got := NewCachedStore(inner, nil, time.Minute); got != Store(inner) {
		t.Error("nil client should return the inner store unchanged")
	}
}
