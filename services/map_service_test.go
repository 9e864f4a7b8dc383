package services

import (
	"context"
	"errors"
	"testing"

	"triptracker/models"
	apierrors "triptracker/utils/errors"
)

type stubNamer struct {
	name string
	err  error
}

func (s stubNamer) CityName(context.Context, float64, float64) (string, error) {
	return s.name, s.err
}

func TestMapInBoundsScansStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flon := f.addItinerary(t, "ana@mail.ch", "Flon", 46.521, 6.630)
	gare := f.addItinerary(t, "ana@mail.ch", "Gare", 46.517, 6.629)
	f.addItinerary(t, "ana@mail.ch", "Geneva", 46.204, 6.143)

	svc := NewMapService(f.itRepo, nil, nil, 1)
	bounds := models.Bounds{South: 46.51, West: 6.62, North: 46.53, East: 6.64}

	got, err := svc.InBounds(ctx, bounds, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ids := itineraryIDs(got); !equalStrings(ids, []string{flon.ID}) {
		t.Fatalf("default limit: got %v", ids)
	}

	got, err = svc.InBounds(ctx, bounds, -1)
	if err != nil {
		t.Fatal(err)
	}
	if ids := itineraryIDs(got); !equalStrings(ids, []string{flon.ID, gare.ID}) {
		t.Fatalf("unlimited: got %v", ids)
	}

	if _, err := svc.InBounds(ctx, models.Bounds{South: 47, North: 46}, 0); err != apierrors.ErrInvalidInput {
		t.Fatalf("inverted bounds: got %v", err)
	}
}

func TestMapInBoundsUsesIndexCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flon := f.addItinerary(t, "ana@mail.ch", "Flon", 46.521, 6.630)
	gare := f.addItinerary(t, "ana@mail.ch", "Gare", 46.517, 6.629)

	idx := &fakeIndex{candidatesFn: func(models.Bounds) ([]string, error) {
		return []string{gare.ID, "stale"}, nil
	}}
	svc := NewMapService(f.itRepo, idx, nil, 10)
	got, err := svc.InBounds(ctx, models.Bounds{South: 46.51, West: 6.62, North: 46.53, East: 6.64}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ids := itineraryIDs(got); !equalStrings(ids, []string{gare.ID}) {
		t.Fatalf("got %v, flon %s should have been filtered by the index", ids, flon.ID)
	}

	idx.candidatesFn = func(models.Bounds) ([]string, error) { return nil, errors.New("redis down") }
	got, err = svc.InBounds(ctx, models.Bounds{South: 46.51, West: 6.62, North: 46.53, East: 6.64}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("fallback scan returned %v", itineraryIDs(got))
	}
}

func TestCityNameDegrades(t *testing.T) {
	ctx := context.Background()
	if got := NewMapService(nil, nil, stubNamer{name: "Lausanne"}, 0).CityName(ctx, 46.5, 6.6); got != "Lausanne" {
		t.Fatalf("got %q", got)
	}
	if got := NewMapService(nil, nil, stubNamer{err: errors.New("timeout")}, 0).CityName(ctx, 46.5, 6.6); got != "" {
		t.Fatalf("failure should give an empty name, got %q", got)
	}
	if got := NewMapService(nil, nil, nil, 0).CityName(ctx, 46.5, 6.6); got != "" {
		t.Fatalf("no geocoder should give an empty name, got %q", got)
	}
}

func TestPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := models.Itinerary{
		Title: "Lakeside",
		Route: []models.LatLng{{Latitude: 46.50, Longitude: 6.62}, {Latitude: 46.51, Longitude: 6.63}},
	}
	if _, err := f.itineraries.Create(ctx, "ana@mail.ch", it); err != nil {
		t.Fatal(err)
	}

	paths, err := NewMapService(f.itRepo, nil, nil, 0).Paths(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths["Lakeside"]) != 2 {
		t.Fatalf("paths = %v", paths)
	}
}
