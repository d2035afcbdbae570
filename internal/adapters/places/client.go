// internal/adapters/places/client.go
package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bar_radar/internal/adapters/observability"
	"bar_radar/internal/domain"
)

const (
	// maxPages is the upstream nearby-search page cap.
	maxPages = 3
	// defaultPageDelay is the wait the upstream needs before a freshly
	// issued page token becomes active.
	defaultPageDelay = 2 * time.Second
)

type Client struct {
	base      string
	hc        *http.Client
	key       string
	rl        *rate.Limiter
	pageDelay time.Duration
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:      base,
		hc:        &http.Client{Timeout: 20 * time.Second},
		key:       key,
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
		pageDelay: defaultPageDelay,
	}, nil
}

// SetPageDelay overrides the inter-page wait (tests).
func (c *Client) SetPageDelay(d time.Duration) { c.pageDelay = d }

func (c *Client) Name() string { return "places" }

// Fetch walks the paginated nearby search and maps every result to a
// canonical venue. Pagination is sequential: each next-page token needs
// the activation delay before it is honoured upstream.
func (c *Client) Fetch(ctx context.Context, q domain.AreaQuery) ([]domain.Venue, error) {
	var all []domain.Venue
	token := ""
	for page := 0; page < maxPages; page++ {
		if token != "" && !sleepCtx(ctx, c.pageDelay) {
			return all, ctx.Err()
		}
		resp, err := c.searchPage(ctx, q, token)
		if err != nil {
			if len(all) > 0 {
				// partial result beats none; later pages are optional
				return all, nil
			}
			return nil, err
		}
		for _, r := range resp.Results {
			all = append(all, mapResult(r))
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	return all, nil
}

// ---- wire types ----

type searchResponse struct {
	Results       []placeResult `json:"results"`
	NextPageToken string        `json:"next_page_token"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
}

type placeResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Vicinity   string   `json:"vicinity"`
	Rating     *float64 `json:"rating"`
	PriceLevel *int     `json:"price_level"`
	Types      []string `json:"types"`
}

func mapResult(r placeResult) domain.Venue {
	v := domain.Venue{
		ID:   r.PlaceID,
		Name: r.Name,
		Location: domain.Coords{
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		},
		Kind:       domain.ClassifyKind(r.Types, r.Name),
		Rating:     r.Rating,
		PriceLevel: r.PriceLevel,
		Sources:    []string{"places"},
	}
	if r.Vicinity != "" {
		vic := r.Vicinity
		v.Address = &vic
		v.Vicinity = &vic
	}
	return v
}

func (c *Client) searchPage(ctx context.Context, q domain.AreaQuery, pageToken string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", q.Latitude, q.Longitude))
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	params.Set("type", "bar")
	params.Set("key", c.key)
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	var out searchResponse
	if err := c.get(ctx, c.base+"/nearbysearch/json?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	if out.Status != "" && out.Status != "OK" && out.Status != "ZERO_RESULTS" {
		if out.ErrorMessage != "" {
			return nil, fmt.Errorf("places: %s: %s", out.Status, out.ErrorMessage)
		}
		return nil, fmt.Errorf("places: status %s", out.Status)
	}
	return &out, nil
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("places: not found")
	ErrUnauthorized = errors.New("places: unauthorized")
)

// get performs a GET with client-side rate limiting, retries, and JSON
// decode into out. Retries on 429 and transient 5xx, honoring
// Retry-After when provided.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "bar_radar/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("places", "nearbysearch", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
