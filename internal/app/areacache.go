package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"bar_radar/internal/domain"
)

const (
	// MaxCachedAreas bounds resident area entries; beyond it the
	// least-recently-used areas are evicted.
	MaxCachedAreas = 7
	// AreaTTL expires an entry regardless of recency.
	AreaTTL = 7 * 24 * time.Hour

	areaKeyPrefix = "bar_data:"
	areaIndexKey  = "bar_data:index"
)

// AreaKey buckets a coordinate onto a ~111m grid cell so nearby queries
// share one cache entry.
func AreaKey(lat, lon float64) string {
	return fmt.Sprintf("%s%.3f:%.3f", areaKeyPrefix, lat, lon)
}

// AreaCache is the area-keyed, size-bounded, time-expiring venue cache.
// Entries and the LRU index live in the underlying key-value store;
// a store outage degrades every operation to miss behaviour. Mutation
// is serialized by one mutex (write rate is one put per relocation).
type AreaCache struct {
	store    domain.Cache
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu sync.Mutex
}

func NewAreaCache(store domain.Cache) *AreaCache {
	return &AreaCache{
		store:    store,
		capacity: MaxCachedAreas,
		ttl:      AreaTTL,
		now:      time.Now,
	}
}

// Get returns the cached venue set for an area key. Expired entries are
// removed lazily and read as misses; fresh hits are promoted to
// most-recently-used.
func (c *AreaCache) Get(ctx context.Context, areaKey string) ([]domain.Venue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entry domain.AreaCacheEntry
	found, err := c.store.Get(ctx, areaKey, &entry)
	if err != nil {
		log.Warn().Err(err).Str("area", areaKey).Msg("area cache read failed, treating as miss")
		return nil, false
	}
	if !found {
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) > c.ttl {
		c.remove(ctx, areaKey)
		return nil, false
	}
	c.promote(ctx, areaKey)
	return entry.Venues, true
}

// Put stores a merged venue set for an area, evicting least-recently-used
// areas past the capacity bound. The entry and the LRU index are updated
// under one lock so readers never observe a half-written state. A store
// outage is reported but leaves the result usable uncached.
func (c *AreaCache) Put(ctx context.Context, areaKey string, venues []domain.Venue) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := domain.AreaCacheEntry{AreaKey: areaKey, Venues: venues, FetchedAt: c.now()}
	if err := c.store.Set(ctx, areaKey, entry, c.ttl); err != nil {
		log.Warn().Err(err).Str("area", areaKey).Msg("area cache write failed")
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	index := c.loadIndex(ctx)
	index = prependUnique(index, areaKey)
	for len(index) > c.capacity {
		victim := index[len(index)-1]
		index = index[:len(index)-1]
		if err := c.store.Del(ctx, victim); err != nil {
			log.Warn().Err(err).Str("area", victim).Msg("area cache eviction failed")
		}
	}
	c.saveIndex(ctx, index)
	return nil
}

// Touch marks an area as most-recently-used without reading its venues.
func (c *AreaCache) Touch(ctx context.Context, areaKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promote(ctx, areaKey)
}

// promote moves areaKey to the front of the LRU index if resident.
// Caller holds c.mu.
func (c *AreaCache) promote(ctx context.Context, areaKey string) {
	index := c.loadIndex(ctx)
	if !containsStr(index, areaKey) {
		return
	}
	c.saveIndex(ctx, prependUnique(index, areaKey))
}

// remove drops an entry and its index slot. Caller holds c.mu.
func (c *AreaCache) remove(ctx context.Context, areaKey string) {
	if err := c.store.Del(ctx, areaKey); err != nil {
		log.Warn().Err(err).Str("area", areaKey).Msg("area cache delete failed")
	}
	index := c.loadIndex(ctx)
	out := index[:0]
	for _, k := range index {
		if k != areaKey {
			out = append(out, k)
		}
	}
	c.saveIndex(ctx, out)
}

func (c *AreaCache) loadIndex(ctx context.Context) []string {
	var index []string
	if _, err := c.store.Get(ctx, areaIndexKey, &index); err != nil {
		log.Warn().Err(err).Msg("area cache index read failed")
		return nil
	}
	return index
}

func (c *AreaCache) saveIndex(ctx context.Context, index []string) {
	// The index outlives individual entries so evictions stay findable.
	if err := c.store.Set(ctx, areaIndexKey, index, 0); err != nil {
		log.Warn().Err(err).Msg("area cache index write failed")
	}
}

func prependUnique(index []string, key string) []string {
	out := make([]string, 0, len(index)+1)
	out = append(out, key)
	for _, k := range index {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
