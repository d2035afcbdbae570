package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"bar_radar/internal/adapters/catalog"
	"bar_radar/internal/adapters/geotags"
	"bar_radar/internal/adapters/observability"
	"bar_radar/internal/adapters/places"
	redisad "bar_radar/internal/adapters/redis"
	"bar_radar/internal/adapters/sun"
	"bar_radar/internal/app"
	"bar_radar/internal/domain"
	"bar_radar/internal/shared"
)

// fetcher warms the area cache for the seed grid so first map loads hit
// cache instead of three live upstreams.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("areas", len(shared.SeedAreas)).
		Int("workers", cfg.FetchWorkers).
		Int("radius", cfg.SearchRadius).
		Msg("fetcher starting")

	var sources []domain.VenueSource
	if cfg.PlacesKey != "" {
		placesClient, err := places.New(cfg.PlacesBase, cfg.PlacesKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize places client")
		}
		sources = append(sources, placesClient)
	} else {
		log.Warn().Msg("places source disabled: no API key")
	}
	sources = append(sources,
		geotags.New(cfg.GeoTagsBase, 2),
		catalog.New(cfg.CatalogFeed),
	)

	store := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	cache := app.NewAreaCache(store)
	resolver := app.NewSunResolver(sun.New(cfg.SunBase), cfg.SunWorkers)
	svc := app.NewVenueService(sources, cache, resolver)

	sem := semaphore.NewWeighted(int64(cfg.FetchWorkers))
	var wg sync.WaitGroup

	for _, area := range shared.SeedAreas {
		area := area

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(c domain.Coords) {
			defer wg.Done()
			defer sem.Release(1)

			q := domain.AreaQuery{Latitude: c.Latitude, Longitude: c.Longitude, RadiusMeters: cfg.SearchRadius}
			venues, warnings := svc.FetchArea(ctx, q)
			log.Info().
				Float64("lat", c.Latitude).
				Float64("lng", c.Longitude).
				Int("venues", len(venues)).
				Int("warnings", len(warnings)).
				Msg("area fetched")
		}(area)
	}

	wg.Wait()
	log.Info().Msg("warm-up completed")
}
