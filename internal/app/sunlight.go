package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"bar_radar/internal/domain"
)

// sunElevationThresholdDeg classifies "in sun". 10 degrees above the
// horizon, matching the deployed sun-exposure service; low sun behind
// rooflines does not count.
const sunElevationThresholdDeg = 10.0

// SunResolver answers "is this coordinate sunlit right now" via the
// external solar-position service, memoizing per rounded coordinate and
// minute bucket so a batch of venues in one filter pass costs at most
// one upstream call each.
type SunResolver struct {
	svc     domain.SolarService
	workers int64

	mu   sync.Mutex
	memo map[string]bool
}

func NewSunResolver(svc domain.SolarService, workers int) *SunResolver {
	if workers <= 0 {
		workers = 4
	}
	return &SunResolver{svc: svc, workers: int64(workers), memo: make(map[string]bool)}
}

func sunKey(lat, lon float64, at time.Time) string {
	return fmt.Sprintf("%.4f:%.4f:%d", lat, lon, at.Unix()/60)
}

// IsInSun resolves sun status for one coordinate. External failure is
// surfaced as an error: the caller must treat the venue as unknown, not
// default it either way.
func (r *SunResolver) IsInSun(ctx context.Context, lat, lon float64, at time.Time) (bool, error) {
	key := sunKey(lat, lon, at)
	r.mu.Lock()
	if v, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	_, elevation, err := r.svc.Position(ctx, lat, lon, at)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrExternalCompute, err)
	}
	sunlit := elevation > sunElevationThresholdDeg

	r.mu.Lock()
	r.memo[key] = sunlit
	r.mu.Unlock()
	return sunlit, nil
}

// ResolveBatch resolves sun status for a venue set with bounded
// parallelism. Venues whose resolution failed are absent from the
// returned map; each failure becomes a warning.
func (r *SunResolver) ResolveBatch(ctx context.Context, venues []domain.Venue, at time.Time) (map[string]bool, []domain.Warning) {
	var (
		sem      = semaphore.NewWeighted(r.workers)
		wg       sync.WaitGroup
		mu       sync.Mutex
		sunlit   = make(map[string]bool, len(venues))
		warnings []domain.Warning
	)

	for _, v := range venues {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			warnings = append(warnings, domain.Warn("sun", err))
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(v domain.Venue) {
			defer wg.Done()
			defer sem.Release(1)

			ok, err := r.IsInSun(ctx, v.Location.Latitude, v.Location.Longitude, at)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, domain.Warn("sun", fmt.Errorf("venue %s: %w", v.ID, err)))
				return
			}
			sunlit[v.ID] = ok
		}(v)
	}

	wg.Wait()
	return sunlit, warnings
}
