package app

import (
	"math"
	"strings"

	"bar_radar/internal/domain"
)

const (
	// metersPerDegree scales the equirectangular distance approximation.
	// Adequate at venue scale; not geodesically exact.
	metersPerDegree = 111139

	dupRadiusMeters    = 20  // two records this close may be one venue
	enrichRadiusMeters = 200 // looser radius for the secondary source's precision
)

func distanceMeters(a, b domain.Coords) float64 {
	dLat := (a.Latitude - b.Latitude) * metersPerDegree
	dLon := (a.Longitude - b.Longitude) * metersPerDegree * math.Cos(a.Latitude*math.Pi/180)
	return math.Hypot(dLat, dLon)
}

// normalizeName lowercases and strips non-alphanumerics, keeping word
// boundaries so token comparison stays meaningful.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// namesSimilar applies the fuzzy name test: equal normalized strings,
// substring containment, or at least one shared token longer than 2 runes.
func namesSimilar(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(na) {
		if len(t) > 2 {
			tokens[t] = struct{}{}
		}
	}
	for _, t := range strings.Fields(nb) {
		if len(t) <= 2 {
			continue
		}
		if _, ok := tokens[t]; ok {
			return true
		}
	}
	return false
}

func sameVenue(a, b domain.Venue, radiusMeters float64) bool {
	return distanceMeters(a.Location, b.Location) <= radiusMeters && namesSimilar(a.Name, b.Name)
}

// Merge combines venue sets into one deduplicated set. Input order is
// priority order: on a duplicate the earlier record is kept and only its
// empty fields are filled from the later one. Duplicate names far apart
// stay distinct, as do co-located venues with unrelated names.
func Merge(sets ...[]domain.Venue) []domain.Venue {
	var out []domain.Venue
	for _, set := range sets {
		for _, v := range set {
			if !v.Valid() {
				continue
			}
			idx := -1
			for i := range out {
				if sameVenue(out[i], v, dupRadiusMeters) {
					idx = i
					break
				}
			}
			if idx < 0 {
				out = append(out, withNormalizedTags(v))
				continue
			}
			fillMissing(&out[idx], v)
		}
	}
	return out
}

// fillMissing copies non-empty fields of src that dst lacks; dst always
// wins on conflict. Provenance accumulates from both.
func fillMissing(dst *domain.Venue, src domain.Venue) {
	if dst.Address == nil && src.Address != nil {
		dst.Address = src.Address
	}
	if dst.Vicinity == nil && src.Vicinity != nil {
		dst.Vicinity = src.Vicinity
	}
	if dst.Rating == nil && src.Rating != nil {
		dst.Rating = src.Rating
	}
	if dst.PriceLevel == nil && src.PriceLevel != nil {
		dst.PriceLevel = src.PriceLevel
	}
	if dst.HoursSpec == nil && src.HoursSpec != nil {
		dst.HoursSpec = src.HoursSpec
	}
	if dst.Kind == domain.KindUnknown && src.Kind != domain.KindUnknown {
		dst.Kind = src.Kind
	}
	if len(src.Features) > 0 {
		dst.Features = domain.NormalizeFeatures(append(dst.Features, src.Features...))
	}
	for _, s := range src.Sources {
		if !containsStr(dst.Sources, s) {
			dst.Sources = append(dst.Sources, s)
		}
	}
}

// Enrich copies tag fields (features, opening hours, classification)
// onto a primary venue from its best positional+name match in the
// secondary set. Authoritative primary fields (rating, price, address)
// are never overwritten. No match leaves the venue unchanged.
func Enrich(primary domain.Venue, secondary []domain.Venue) domain.Venue {
	if len(primary.Features) > 0 && primary.HoursSpec != nil {
		return primary
	}
	for _, s := range secondary {
		if !sameVenue(primary, s, enrichRadiusMeters) {
			continue
		}
		if len(primary.Features) == 0 && len(s.Features) > 0 {
			primary.Features = domain.NormalizeFeatures(s.Features)
		}
		if primary.HoursSpec == nil && s.HoursSpec != nil {
			primary.HoursSpec = s.HoursSpec
		}
		if primary.Kind == domain.KindUnknown && s.Kind != domain.KindUnknown {
			primary.Kind = s.Kind
		}
		break
	}
	return primary
}

// EnrichAll applies Enrich over a primary set. O(n*m), fine at the
// scale of one metropolitan area.
func EnrichAll(primary, secondary []domain.Venue) []domain.Venue {
	out := make([]domain.Venue, len(primary))
	for i, p := range primary {
		out[i] = Enrich(p, secondary)
	}
	return out
}

func withNormalizedTags(v domain.Venue) domain.Venue {
	v.Features = domain.NormalizeFeatures(v.Features)
	return v
}

func containsStr(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
