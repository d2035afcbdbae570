package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"bar_radar/internal/adapters/catalog"
	"bar_radar/internal/adapters/geotags"
	server "bar_radar/internal/adapters/http_server"
	"bar_radar/internal/adapters/observability"
	"bar_radar/internal/adapters/places"
	redisad "bar_radar/internal/adapters/redis"
	"bar_radar/internal/adapters/sun"
	"bar_radar/internal/app"
	"bar_radar/internal/domain"
	"bar_radar/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// priority order: commercial API wins field conflicts, then the
	// community tag database, then the curated catalog
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

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Svc: svc, DefaultRadius: cfg.SearchRadius})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
