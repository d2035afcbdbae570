package app

import (
	"time"

	"bar_radar/internal/domain"
)

// FilterSpec is the composable predicate set applied to a venue set.
// All active predicates AND together. Unset options skip their check.
type FilterSpec struct {
	Kind          domain.VenueKind `json:"kind,omitempty"`
	MinRating     *float64         `json:"minRating,omitempty"`
	MaxPriceLevel *int             `json:"maxPriceLevel,omitempty"`
	OpenNow       bool             `json:"openNow,omitempty"`
	Features      []string         `json:"features,omitempty"`
	Sunny         bool             `json:"sunny,omitempty"`
}

func (s FilterSpec) Empty() bool {
	return s.Kind == "" && s.MinRating == nil && s.MaxPriceLevel == nil &&
		!s.OpenNow && len(s.Features) == 0 && !s.Sunny
}

// ApplyFilter selects the matching subset, order-preserving and
// non-mutating. There is no error path: unknown hours, missing rating
// and unknown sun status all resolve to "predicate fails". sunlit holds
// pre-resolved sun statuses (venues absent from it are unknown) and is
// only consulted when Sunny is set.
func ApplyFilter(venues []domain.Venue, spec FilterSpec, now time.Time, sunlit map[string]bool) []domain.Venue {
	if spec.Empty() {
		return venues
	}
	out := make([]domain.Venue, 0, len(venues))
	for _, v := range venues {
		if matches(v, spec, now, sunlit) {
			out = append(out, v)
		}
	}
	return out
}

func matches(v domain.Venue, spec FilterSpec, now time.Time, sunlit map[string]bool) bool {
	if spec.Kind != "" && v.Kind != spec.Kind {
		return false
	}
	if spec.MinRating != nil {
		rating := 0.0 // absent rating fails the threshold
		if v.Rating != nil {
			rating = *v.Rating
		}
		if rating < *spec.MinRating {
			return false
		}
	}
	if spec.MaxPriceLevel != nil {
		price := 99 // absent price disqualifies
		if v.PriceLevel != nil {
			price = *v.PriceLevel
		}
		if price > *spec.MaxPriceLevel {
			return false
		}
	}
	if spec.OpenNow {
		if v.HoursSpec == nil || !IsOpenAt(*v.HoursSpec, now) {
			return false
		}
	}
	for _, f := range spec.Features {
		if !v.HasFeature(f) {
			return false
		}
	}
	if spec.Sunny {
		ok, known := sunlit[v.ID]
		if !known || !ok {
			return false
		}
	}
	return true
}
