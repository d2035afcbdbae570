package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "bar_radar/internal/adapters/redis"
	"bar_radar/internal/domain"
)

func newTestCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	in := domain.AreaCacheEntry{
		AreaKey:   "bar_data:51.500:-0.100",
		Venues:    []domain.Venue{{ID: "v1", Name: "The Crown", Location: domain.Coords{Latitude: 51.5, Longitude: -0.1}}},
		FetchedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := cache.Set(ctx, "bar_data:51.500:-0.100", in, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out domain.AreaCacheEntry
	ok, err := cache.Get(ctx, "bar_data:51.500:-0.100", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(out.Venues) != 1 || out.Venues[0].Name != "The Crown" {
		t.Fatalf("unexpected round trip: %+v", out)
	}
}

func TestCache_MissIsNotAnError(t *testing.T) {
	cache, _ := newTestCache(t)

	var out domain.AreaCacheEntry
	ok, err := cache.Get(context.Background(), "bar_data:missing", &out)
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestCache_SetHonoursTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var out string
	if ok, _ := cache.Get(ctx, "k", &out); ok {
		t.Fatalf("expired key must miss")
	}
}

func TestCache_ZeroTTLMeansNoExpiry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	if err := cache.Set(ctx, "bar_data:index", []string{"a", "b"}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(24 * time.Hour)

	var out []string
	ok, err := cache.Get(ctx, "bar_data:index", &out)
	if err != nil || !ok || len(out) != 2 {
		t.Fatalf("index key must not expire: ok=%v err=%v out=%v", ok, err, out)
	}
}

func TestCache_Del(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	_ = cache.Set(ctx, "k", "v", 0)
	if err := cache.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	var out string
	if ok, _ := cache.Get(ctx, "k", &out); ok {
		t.Fatalf("deleted key must miss")
	}
}
