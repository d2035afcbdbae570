// internal/adapters/sun/client.go
package sun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"bar_radar/internal/adapters/observability"
)

// Client calls the external sun-exposure service for solar position.
// The service is the SunCalc-equivalent black box; we never compute the
// astronomy locally. A circuit breaker keeps a dead service from
// stalling every filter pass.
type Client struct {
	base string
	hc   *http.Client
	cb   *gobreaker.CircuitBreaker
}

func New(base string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sun-exposure",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 10 * time.Second},
		cb:   cb,
	}
}

type request struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Datetime  string  `json:"datetime"`
}

type response struct {
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
}

// Position returns solar azimuth and elevation in degrees for a
// coordinate and instant.
func (c *Client) Position(ctx context.Context, lat, lon float64, at time.Time) (float64, float64, error) {
	body, err := json.Marshal(request{
		Latitude:  lat,
		Longitude: lon,
		Datetime:  at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, 0, err
	}

	out, err := c.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/sun-exposure", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		observability.ObserveExternal("sun", "sun-exposure", resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("sun: status %d", resp.StatusCode)
		}
		var r response
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return nil, fmt.Errorf("sun: decode: %w", err)
		}
		return r, nil
	})
	if err != nil {
		return 0, 0, err
	}
	r := out.(response)
	return r.Azimuth, r.Elevation, nil
}
