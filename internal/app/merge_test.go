package app_test

import (
	"reflect"
	"testing"

	"bar_radar/internal/app"
	"bar_radar/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func venue(id, name string, lat, lon float64) domain.Venue {
	return domain.Venue{
		ID:       id,
		Name:     name,
		Location: domain.Coords{Latitude: lat, Longitude: lon},
		Kind:     domain.KindUnknown,
	}
}

func TestMerge_SamePointSameNameCollapses(t *testing.T) {
	a := venue("places-1", "Ye Olde Pub", 51.5000, -0.1000)
	b := venue("osm-1", "Ye Olde Pub", 51.5000, -0.1000)

	got := app.Merge([]domain.Venue{a}, []domain.Venue{b})
	if len(got) != 1 {
		t.Fatalf("expected 1 merged venue, got %d", len(got))
	}
	if got[0].ID != "places-1" {
		t.Fatalf("higher-priority record should be kept, got %s", got[0].ID)
	}
}

func TestMerge_FillsMissingFieldsFromLowerPriority(t *testing.T) {
	a := venue("places-1", "Ye Olde Pub", 51.5000, -0.1000)
	a.Rating = ptr(4.5)
	a.Sources = []string{"places"}

	b := venue("osm-1", "Ye Olde Pub", 51.50001, -0.10001)
	b.HoursSpec = ptr("Mo,12:00,23:00")
	b.Rating = ptr(3.0) // must not overwrite
	b.Features = []string{"Real_Ale", "garden"}
	b.Sources = []string{"geotags"}

	got := app.Merge([]domain.Venue{a}, []domain.Venue{b})
	if len(got) != 1 {
		t.Fatalf("expected 1 merged venue, got %d", len(got))
	}
	m := got[0]
	if m.HoursSpec == nil || *m.HoursSpec != "Mo,12:00,23:00" {
		t.Fatalf("hours should be copied from lower priority: %+v", m.HoursSpec)
	}
	if *m.Rating != 4.5 {
		t.Fatalf("higher-priority rating must win, got %v", *m.Rating)
	}
	if !m.HasFeature("real ale") || !m.HasFeature("garden") {
		t.Fatalf("features should merge normalized: %v", m.Features)
	}
	if !reflect.DeepEqual(m.Sources, []string{"places", "geotags"}) {
		t.Fatalf("provenance should accumulate: %v", m.Sources)
	}
}

func TestMerge_FarApartNeverMerge(t *testing.T) {
	a := venue("1", "The Crown", 51.5000, -0.1000)
	// ~55m north: same name, beyond the 20m radius
	b := venue("2", "The Crown", 51.5005, -0.1000)

	got := app.Merge([]domain.Venue{a}, []domain.Venue{b})
	if len(got) != 2 {
		t.Fatalf("venues >20m apart must stay distinct, got %d", len(got))
	}
}

func TestMerge_CoLocatedDifferentNamesStayDistinct(t *testing.T) {
	a := venue("1", "The Crown", 51.5000, -0.1000)
	b := venue("2", "Zebrano", 51.5000, -0.1000)

	got := app.Merge([]domain.Venue{a}, []domain.Venue{b})
	if len(got) != 2 {
		t.Fatalf("unrelated names at one point must stay distinct, got %d", len(got))
	}
}

func TestMerge_SharedLongTokenMatches(t *testing.T) {
	a := venue("1", "The Dolphin Tavern", 51.5000, -0.1000)
	b := venue("2", "Dolphin", 51.50001, -0.10001)

	got := app.Merge([]domain.Venue{a}, []domain.Venue{b})
	if len(got) != 1 {
		t.Fatalf("shared token >2 chars within 20m should merge, got %d", len(got))
	}
}

func TestMerge_Idempotent(t *testing.T) {
	a := venue("places-1", "Ye Olde Pub", 51.5000, -0.1000)
	a.Rating = ptr(4.2)
	b := venue("osm-1", "Ye Olde Pub", 51.50001, -0.10001)
	b.HoursSpec = ptr("Mo,12:00,23:00")
	c := venue("cat-1", "The Crown", 51.5100, -0.1100)

	once := app.Merge([]domain.Venue{a}, []domain.Venue{b, c})
	twice := app.Merge(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge must be idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMerge_DropsMalformedRecords(t *testing.T) {
	bad := venue("", "", 51.5, -0.1)
	got := app.Merge([]domain.Venue{bad})
	if len(got) != 0 {
		t.Fatalf("invalid records must not enter the result, got %d", len(got))
	}
}

func TestEnrich_CopiesTagsWithinRadius(t *testing.T) {
	primary := venue("places-1", "The Dolphin", 51.5000, -0.1000)
	primary.Rating = ptr(4.0)
	primary.Address = ptr("165 Mare St")

	secondary := venue("osm-9", "The Dolphin", 51.5010, -0.1000) // ~111m away
	secondary.Features = []string{"real_ale", "dog"}
	secondary.HoursSpec = ptr("Fr,18:00,02:00")
	secondary.Address = ptr("somewhere vague")
	secondary.Kind = domain.KindPub

	got := app.Enrich(primary, []domain.Venue{secondary})
	if !got.HasFeature("real ale") {
		t.Fatalf("features should be enriched: %v", got.Features)
	}
	if got.HoursSpec == nil || *got.HoursSpec != "Fr,18:00,02:00" {
		t.Fatalf("hours should be enriched")
	}
	if got.Kind != domain.KindPub {
		t.Fatalf("classification should be enriched")
	}
	if *got.Address != "165 Mare St" {
		t.Fatalf("authoritative address must never be overwritten")
	}
}

func TestEnrich_NoMatchPassesThrough(t *testing.T) {
	primary := venue("places-1", "The Dolphin", 51.5000, -0.1000)
	secondary := venue("osm-9", "The Dolphin", 51.5100, -0.1000) // ~1.1km away

	got := app.Enrich(primary, []domain.Venue{secondary})
	if !reflect.DeepEqual(got, primary) {
		t.Fatalf("no match should leave venue unchanged")
	}
}
