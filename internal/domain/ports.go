package domain

import (
	"context"
	"time"
)

// AreaQuery is the shared fetch request handed to every source adapter.
type AreaQuery struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
}

// VenueSource is one upstream venue feed. Order of sources in the
// pipeline defines merge priority. A failed source contributes nothing;
// it must not take the fetch cycle down with it.
type VenueSource interface {
	Name() string
	Fetch(ctx context.Context, q AreaQuery) ([]Venue, error)
}

// Cache is the key-value store behind the area cache. Implementations
// serialize values as JSON blobs; Get reports (found, error) so a store
// outage can degrade to miss behaviour upstream.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// SolarService is the external solar-position function: deterministic
// azimuth/elevation (degrees) for a coordinate and instant.
type SolarService interface {
	Position(ctx context.Context, lat, lon float64, at time.Time) (azimuthDeg, elevationDeg float64, err error)
}
