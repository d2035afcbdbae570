// internal/adapters/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"bar_radar/internal/domain"
)

// Source reads the curated venue feed: a CSV with columns
// name, latitude, longitude, address, postcode, type, opening_hours,
// features. The feed location may be a local path or an HTTP URL.
// The whole feed is loaded per fetch; distance trimming to the query
// area happens here so the merge sees only relevant rows.
type Source struct {
	location string
	hc       *http.Client
}

func New(location string) *Source {
	return &Source{
		location: location,
		hc:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Source) Name() string { return "catalog" }

func (s *Source) Fetch(ctx context.Context, q domain.AreaQuery) ([]domain.Venue, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	all, err := Parse(rc)
	if err != nil {
		return nil, err
	}

	within := make([]domain.Venue, 0, len(all))
	for _, v := range all {
		if inRadius(q, v.Location) {
			within = append(within, v)
		}
	}
	return within, nil
}

func (s *Source) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.hc.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("catalog: status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}
	return os.Open(s.location)
}

// Parse reads the feed into venues. Rows with unparseable or non-finite
// coordinates are skipped; one bad row never fails the feed.
func Parse(r io.Reader) ([]domain.Venue, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var venues []domain.Venue
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("catalog: skipping malformed row")
			continue
		}

		name := field(row, "name")
		lat, errLat := strconv.ParseFloat(field(row, "latitude"), 64)
		lon, errLon := strconv.ParseFloat(field(row, "longitude"), 64)
		if name == "" || errLat != nil || errLon != nil {
			log.Warn().Str("name", name).Msg("catalog: skipping row with bad name or coordinates")
			continue
		}

		v := domain.Venue{
			ID:       domain.SlugID(name, field(row, "postcode")),
			Name:     name,
			Location: domain.Coords{Latitude: lat, Longitude: lon},
			Kind:     domain.ClassifyKind([]string{field(row, "type")}, name),
			Sources:  []string{"catalog"},
		}
		if addr := field(row, "address"); addr != "" {
			v.Address = &addr
			v.Vicinity = &addr
		}
		if hours := field(row, "opening_hours"); hours != "" {
			v.HoursSpec = &hours
		}
		if raw := field(row, "features"); raw != "" {
			v.Features = domain.NormalizeFeatures(strings.Split(raw, ","))
		}
		if !v.Valid() {
			log.Warn().Str("name", name).Msg("catalog: skipping invalid row")
			continue
		}
		venues = append(venues, v)
	}
	return venues, nil
}

func inRadius(q domain.AreaQuery, c domain.Coords) bool {
	d := float64(q.RadiusMeters) / 111139.0
	return c.Latitude >= q.Latitude-d && c.Latitude <= q.Latitude+d &&
		c.Longitude >= q.Longitude-d && c.Longitude <= q.Longitude+d
}
