// internal/adapters/geotags/client.go
package geotags

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bar_radar/internal/adapters/observability"
	"bar_radar/internal/domain"
)

// Client queries the community tag database (Overpass-style) for
// amenity=bar|pub nodes inside a bounding box around the query point.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) *Client {
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 30 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (c *Client) Name() string { return "geotags" }

// TaggedNode is the raw upstream shape: one tagged point.
type TaggedNode struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type queryResponse struct {
	Elements []TaggedNode `json:"elements"`
}

// Fetch runs the bbox query and converts qualifying nodes (named, with
// amenity bar or pub) into venues. Unnamed or untagged nodes are noise
// and skipped silently.
func (c *Client) Fetch(ctx context.Context, q domain.AreaQuery) ([]domain.Venue, error) {
	nodes, err := c.Query(ctx, bboxAround(q))
	if err != nil {
		return nil, err
	}
	venues := make([]domain.Venue, 0, len(nodes))
	for _, n := range nodes {
		if v, ok := NodeToVenue(n); ok {
			venues = append(venues, v)
		}
	}
	return venues, nil
}

// BBox is south,west,north,east in degrees.
type BBox struct {
	South, West, North, East float64
}

func bboxAround(q domain.AreaQuery) BBox {
	// Half-extent in degrees; good enough at metropolitan latitude.
	d := float64(q.RadiusMeters) / 111139.0
	return BBox{
		South: q.Latitude - d,
		West:  q.Longitude - d,
		North: q.Latitude + d,
		East:  q.Longitude + d,
	}
}

// Query fetches raw tagged nodes for a bounding box.
func (c *Client) Query(ctx context.Context, b BBox) ([]TaggedNode, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`[out:json][timeout:25];node[amenity~"bar|pub"][name](%f,%f,%f,%f);out body;`,
		b.South, b.West, b.North, b.East,
	)
	u := c.base + "/api/interpreter?data=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bar_radar/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("geotags", "interpreter", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("geotags: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geotags: decode: %w", err)
	}
	return out.Elements, nil
}

// featureTags are the boolean amenity tags carried over from the tag
// database when set to "yes". Order fixed so feature lists come out stable.
var featureTags = []struct{ tag, canonical string }{
	{"real_ale", "real ale"},
	{"real_fire", "fireplace"},
	{"dog", "dog friendly"},
	{"wheelchair", "wheelchair"},
	{"garden", "garden"},
	{"outdoor_seating", "outdoor seating"},
	{"live_music", "live music"},
	{"food", "food"},
}

// NodeToVenue converts one tagged node into a canonical venue. Only
// named nodes with amenity bar or pub qualify.
func NodeToVenue(n TaggedNode) (domain.Venue, bool) {
	if n.Type != "" && n.Type != "node" {
		return domain.Venue{}, false
	}
	name := n.Tags["name"]
	amenity := strings.ToLower(n.Tags["amenity"])
	if name == "" || (amenity != "bar" && amenity != "pub") {
		return domain.Venue{}, false
	}

	v := domain.Venue{
		ID:       fmt.Sprintf("osm-%d", n.ID),
		Name:     name,
		Location: domain.Coords{Latitude: n.Lat, Longitude: n.Lon},
		Kind:     domain.ClassifyKind([]string{amenity}, name),
		Sources:  []string{"geotags"},
	}

	if addr := firstNonEmpty(n.Tags["addr:full"], n.Tags["addr:street"]); addr != "" {
		v.Address = &addr
		v.Vicinity = &addr
	}
	if hours := n.Tags["opening_hours"]; hours != "" {
		v.HoursSpec = &hours
	}

	var features []string
	for _, ft := range featureTags {
		if n.Tags[ft.tag] == "yes" {
			features = append(features, ft.canonical)
		}
	}
	v.Features = domain.NormalizeFeatures(features)
	return v, true
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
