package domain

import (
	"math"
	"strings"
	"time"
)

type VenueKind string

const (
	KindBar     VenueKind = "bar"
	KindPub     VenueKind = "pub"
	KindUnknown VenueKind = "unknown"
)

type Coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Venue is the canonical record all three sources normalize into.
// Optional fields are pointers; nil means "unknown", never "absent means no".
type Venue struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   Coords    `json:"location"`
	Address    *string   `json:"address,omitempty"`
	Vicinity   *string   `json:"vicinity,omitempty"`
	Kind       VenueKind `json:"kind"`
	Rating     *float64  `json:"rating,omitempty"`     // 0.0-5.0
	PriceLevel *int      `json:"priceLevel,omitempty"` // 0-4
	Features   []string  `json:"features,omitempty"`   // normalized lowercase tags
	HoursSpec  *string   `json:"openingHours,omitempty"`
	Sources    []string  `json:"-"` // adapters that contributed/confirmed this record
}

// AreaCacheEntry is the unit owned by the area cache: one merged venue
// set per geographic cell, stamped with its fetch time for TTL expiry.
type AreaCacheEntry struct {
	AreaKey   string    `json:"areaKey"`
	Venues    []Venue   `json:"venues"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Valid reports whether the venue may enter the pipeline: an id, a name
// and finite coordinates are the ingestion-boundary minimum.
func (v Venue) Valid() bool {
	if v.ID == "" || v.Name == "" {
		return false
	}
	lat, lon := v.Location.Latitude, v.Location.Longitude
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return true
}

// HasFeature reports whether the venue carries the given canonical tag.
func (v Venue) HasFeature(tag string) bool {
	tag = NormalizeFeature(tag)
	for _, f := range v.Features {
		if f == tag {
			return true
		}
	}
	return false
}

// NormalizeFeature maps a raw feature token to its canonical form:
// lowercase, separators collapsed to single spaces ("Real_Ale" -> "real ale").
func NormalizeFeature(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeFeatures canonicalizes and dedupes a tag list, preserving
// first-seen order. The vocabulary is open-ended; unknown tags pass through.
func NormalizeFeatures(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		f := NormalizeFeature(r)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// ClassifyKind derives the venue classification from source type tags,
// falling back to name heuristics when the tags are inconclusive.
func ClassifyKind(typeTags []string, name string) VenueKind {
	for _, t := range typeTags {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "pub":
			return KindPub
		case "bar", "night_club":
			return KindBar
		}
	}
	low := strings.ToLower(name)
	for _, w := range []string{"pub", "tavern", "arms", "inn"} {
		if strings.Contains(low, w) {
			return KindPub
		}
	}
	if strings.Contains(low, "bar") {
		return KindBar
	}
	return KindUnknown
}

// SlugID builds a deterministic identifier from free-text parts for
// sources without a native id (e.g. catalog rows: name + postcode).
func SlugID(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, r := range strings.ToLower(p) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
			default:
				b.WriteByte('-')
			}
		}
		b.WriteByte('-')
	}
	return strings.Trim(collapseDashes(b.String()), "-")
}

func collapseDashes(s string) string {
	var b strings.Builder
	prev := false
	for _, r := range s {
		if r == '-' {
			if prev {
				continue
			}
			prev = true
		} else {
			prev = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
