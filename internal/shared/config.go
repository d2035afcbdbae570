package shared

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv       string `validate:"required"`
	HTTPAddr     string `validate:"required"`
	MetricsAddr  string
	RedisAddr    string `validate:"required"`
	RedisDB      int
	RedisPass    string
	PlacesBase   string `validate:"required,url"`
	PlacesKey    string
	GeoTagsBase  string `validate:"required,url"`
	CatalogFeed  string `validate:"required"`
	SunBase      string `validate:"required,url"`
	SearchRadius int    `validate:"gt=0,lte=5000"`
	SunWorkers   int    `validate:"gt=0"`
	FetchWorkers int    `validate:"gt=0"`
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ":9100"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		PlacesBase:   env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:    env("PLACES_API_KEY", ""),
		GeoTagsBase:  env("GEOTAGS_BASE_URL", "https://overpass-api.de"),
		CatalogFeed:  env("CATALOG_FEED", "assets/venues.csv"),
		SunBase:      env("SUN_BASE_URL", "http://localhost:3000"),
		SearchRadius: atoi("SEARCH_RADIUS_METERS", 1000),
		SunWorkers:   atoi("SUN_WORKERS", 4),
		FetchWorkers: atoi("FETCH_WORKERS", 4),
	}
	if err := validator.New().Struct(c); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

