package places_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bar_radar/internal/adapters/places"
	"bar_radar/internal/domain"
)

func testQuery() domain.AreaQuery {
	return domain.AreaQuery{Latitude: 51.5, Longitude: -0.1, RadiusMeters: 1000}
}

func page(results []map[string]any, next string) map[string]any {
	out := map[string]any{"results": results, "status": "OK"}
	if next != "" {
		out["next_page_token"] = next
	}
	return out
}

func result(id, name string, lat, lng float64) map[string]any {
	return map[string]any{
		"place_id": id,
		"name":     name,
		"geometry": map[string]any{"location": map[string]any{"lat": lat, "lng": lng}},
		"vicinity": "Mare Street",
		"rating":   4.2,
		"types":    []string{"bar"},
	}
}

func TestFetch_WalksAllPagesUpToCap(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		token := r.URL.Query().Get("pagetoken")
		switch n {
		case 1:
			if token != "" {
				t.Errorf("first page should have no token, got %q", token)
			}
			_ = json.NewEncoder(w).Encode(page([]map[string]any{result("p1", "Bar One", 51.5, -0.1)}, "tok2"))
		case 2:
			if token != "tok2" {
				t.Errorf("expected tok2, got %q", token)
			}
			_ = json.NewEncoder(w).Encode(page([]map[string]any{result("p2", "Bar Two", 51.5, -0.1)}, "tok3"))
		default:
			// a fourth page must never be requested even though a token is offered
			_ = json.NewEncoder(w).Encode(page([]map[string]any{result(fmt.Sprintf("p%d", n), "Bar N", 51.5, -0.1)}, "tok-more"))
		}
	}))
	defer ts.Close()

	cl, err := places.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	cl.SetPageDelay(time.Millisecond)

	got, err := cl.Fetch(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 venues over 3 pages, got %d", len(got))
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("pagination must stop at 3 pages, made %d requests", n)
	}
	if got[0].ID != "p1" || got[0].Name != "Bar One" || got[0].Rating == nil || *got[0].Rating != 4.2 {
		t.Fatalf("unexpected mapping: %+v", got[0])
	}
	if got[0].Kind != "bar" {
		t.Fatalf("type tags should classify the venue, got %s", got[0].Kind)
	}
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			_ = json.NewEncoder(w).Encode(page([]map[string]any{result("p1", "Bar One", 51.5, -0.1)}, ""))
		}
	}))
	defer ts.Close()

	cl, err := places.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	cl.SetPageDelay(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.Fetch(ctx, testQuery())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 venue after retries, got %d", len(got))
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestFetch_UpstreamStatusErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED", "error_message": "bad key"})
	}))
	defer ts.Close()

	cl, err := places.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := cl.Fetch(context.Background(), testQuery()); err == nil {
		t.Fatalf("expected error for denied request")
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := places.New("http://example", "", 5); err == nil {
		t.Fatalf("expected error for missing API key")
	}
}
