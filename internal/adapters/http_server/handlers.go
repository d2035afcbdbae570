// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"bar_radar/internal/app"
	"bar_radar/internal/domain"
)

type Handlers struct {
	Svc           *app.VenueService
	DefaultRadius int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type venuesResponse struct {
	Venues   []domain.Venue   `json:"venues"`
	Warnings []domain.Warning `json:"warnings,omitempty"`
	Count    int              `json:"count"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/venues", h.listVenues)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) listVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid coordinates", "lat and lng must be numbers")
		return
	}

	radius := h.DefaultRadius
	if rs := q.Get("radius"); rs != "" {
		n, err := strconv.Atoi(rs)
		if err != nil || n <= 0 || n > 5000 {
			writeProblem(w, http.StatusBadRequest, "Invalid radius", "radius must be an integer between 1 and 5000")
			return
		}
		radius = n
	}

	spec, err := parseFilterSpec(q.Get("kind"), q.Get("min_rating"), q.Get("max_price"),
		q.Get("open_now"), q.Get("features"), q.Get("sunny"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	venues, warnings := h.Svc.Venues(r.Context(),
		domain.AreaQuery{Latitude: lat, Longitude: lng, RadiusMeters: radius}, spec)

	resp := venuesResponse{Venues: venues, Warnings: warnings, Count: len(venues)}
	etag, body := calcETagAndBody(resp)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listVenues body")
	}
}

func parseFilterSpec(kind, minRating, maxPrice, openNow, features, sunny string) (app.FilterSpec, error) {
	var spec app.FilterSpec

	switch strings.ToLower(kind) {
	case "":
	case "bar":
		spec.Kind = domain.KindBar
	case "pub":
		spec.Kind = domain.KindPub
	default:
		return spec, errParam("kind must be bar or pub")
	}

	if minRating != "" {
		f, err := strconv.ParseFloat(minRating, 64)
		if err != nil || f < 0 || f > 5 {
			return spec, errParam("min_rating must be a number between 0 and 5")
		}
		spec.MinRating = &f
	}
	if maxPrice != "" {
		n, err := strconv.Atoi(maxPrice)
		if err != nil || n < 0 || n > 4 {
			return spec, errParam("max_price must be an integer between 0 and 4")
		}
		spec.MaxPriceLevel = &n
	}
	if openNow != "" {
		b, err := strconv.ParseBool(openNow)
		if err != nil {
			return spec, errParam("open_now must be a boolean")
		}
		spec.OpenNow = b
	}
	if features != "" {
		for _, f := range strings.Split(features, ",") {
			if t := strings.TrimSpace(f); t != "" {
				spec.Features = append(spec.Features, t)
			}
		}
	}
	if sunny != "" {
		b, err := strconv.ParseBool(sunny)
		if err != nil {
			return spec, errParam("sunny must be a boolean")
		}
		spec.Sunny = b
	}
	return spec, nil
}

type errParam string

func (e errParam) Error() string { return string(e) }
