package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"bar_radar/internal/domain"
)

// VenueService runs the fetch cycle (source adapters -> enrich -> merge
// -> write-through cache) and answers filtered venue queries.
type VenueService struct {
	sources []domain.VenueSource // priority order: first wins on conflicts
	cache   *AreaCache
	sun     *SunResolver
	now     func() time.Time
}

func NewVenueService(sources []domain.VenueSource, cache *AreaCache, sun *SunResolver) *VenueService {
	return &VenueService{sources: sources, cache: cache, sun: sun, now: time.Now}
}

// Venues returns the filtered venue set for a coordinate, served from
// the area cache when fresh, otherwise from a full fetch cycle. The
// warning list reports every degraded step; the result itself is never
// an error.
func (s *VenueService) Venues(ctx context.Context, q domain.AreaQuery, spec FilterSpec) ([]domain.Venue, []domain.Warning) {
	venues, warnings := s.FetchArea(ctx, q)

	var sunlit map[string]bool
	if spec.Sunny {
		var sunWarnings []domain.Warning
		sunlit, sunWarnings = s.sun.ResolveBatch(ctx, venues, s.now())
		warnings = append(warnings, sunWarnings...)
	}
	return ApplyFilter(venues, spec, s.now(), sunlit), warnings
}

// FetchArea returns the merged venue set for an area, consulting the
// cache first. On a miss all sources are queried concurrently; the merge
// waits for every adapter because dedup priority needs all inputs.
func (s *VenueService) FetchArea(ctx context.Context, q domain.AreaQuery) ([]domain.Venue, []domain.Warning) {
	areaKey := AreaKey(q.Latitude, q.Longitude)
	if venues, ok := s.cache.Get(ctx, areaKey); ok {
		log.Debug().Str("area", areaKey).Int("venues", len(venues)).Msg("area cache hit")
		return venues, nil
	}

	sets, warnings := s.fetchAll(ctx, q)

	// The community tag set (priority 1) backfills feature/hours tags on
	// the commercial set before dedup, at its looser coordinate precision.
	if len(sets) > 1 {
		sets[0] = EnrichAll(sets[0], sets[1])
	}

	merged := Merge(sets...)
	log.Info().
		Str("area", areaKey).
		Int("venues", len(merged)).
		Int("warnings", len(warnings)).
		Msg("fetch cycle complete")

	if err := s.cache.Put(ctx, areaKey, merged); err != nil {
		warnings = append(warnings, domain.Warn("cache", err))
	}
	return merged, warnings
}

// fetchAll queries every source in parallel, preserving priority order
// in the returned sets. A failed source yields a warning and an empty
// set; malformed records are dropped per record, not per source.
func (s *VenueService) fetchAll(ctx context.Context, q domain.AreaQuery) ([][]domain.Venue, []domain.Warning) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sets     = make([][]domain.Venue, len(s.sources))
		warnings []domain.Warning
	)

	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src domain.VenueSource) {
			defer wg.Done()

			venues, err := src.Fetch(ctx, q)
			if err != nil {
				log.Warn().Err(err).Str("source", src.Name()).Msg("source fetch failed")
				mu.Lock()
				warnings = append(warnings, domain.Warn(src.Name(), fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)))
				mu.Unlock()
				return
			}

			valid := venues[:0]
			for _, v := range venues {
				if !v.Valid() {
					mu.Lock()
					warnings = append(warnings, domain.Warn(src.Name(), fmt.Errorf("%w: %q", domain.ErrMalformedRecord, v.Name)))
					mu.Unlock()
					continue
				}
				valid = append(valid, v)
			}
			sets[i] = valid
		}(i, src)
	}

	wg.Wait()
	return sets, warnings
}
