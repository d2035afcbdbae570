package domain_test

import (
	"math"
	"reflect"
	"testing"

	"bar_radar/internal/domain"
)

func TestNormalizeFeatures_CollapsesVariants(t *testing.T) {
	got := domain.NormalizeFeatures([]string{"Real_Ale", "real ale", "REAL-ALE", " dog friendly ", ""})
	want := []string{"real ale", "dog friendly"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestClassifyKind(t *testing.T) {
	cases := []struct {
		types []string
		name  string
		want  domain.VenueKind
	}{
		{[]string{"pub"}, "anything", domain.KindPub},
		{[]string{"bar", "restaurant"}, "anything", domain.KindBar},
		{nil, "The Spread Eagle Tavern", domain.KindPub},
		{nil, "Nightjar Bar", domain.KindBar},
		{nil, "Some Venue", domain.KindUnknown},
	}
	for _, c := range cases {
		if got := domain.ClassifyKind(c.types, c.name); got != c.want {
			t.Errorf("ClassifyKind(%v,%q) = %s, want %s", c.types, c.name, got, c.want)
		}
	}
}

func TestSlugID_Deterministic(t *testing.T) {
	a := domain.SlugID("Ye Olde Pub", "E8 1AB")
	b := domain.SlugID("Ye Olde Pub", "E8 1AB")
	if a != b || a == "" {
		t.Fatalf("slug must be stable and non-empty: %q vs %q", a, b)
	}
	if a != "ye-olde-pub-e8-1ab" {
		t.Fatalf("unexpected slug: %q", a)
	}
}

func TestVenueValid_RejectsNonFiniteCoordinates(t *testing.T) {
	v := domain.Venue{
		ID:       "1",
		Name:     "The Crown",
		Location: domain.Coords{Latitude: 51.5, Longitude: -0.1},
	}
	if !v.Valid() {
		t.Fatalf("finite venue should be valid")
	}

	v.Location.Latitude = math.NaN()
	if v.Valid() {
		t.Fatalf("NaN latitude must be rejected")
	}
	v.Location = domain.Coords{Latitude: 51.5, Longitude: math.Inf(1)}
	if v.Valid() {
		t.Fatalf("infinite longitude must be rejected")
	}
	v.Location = domain.Coords{Latitude: 51.5, Longitude: -0.1}
	v.Name = ""
	if v.Valid() {
		t.Fatalf("empty name must be rejected")
	}
}
