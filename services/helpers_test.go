package services

import (
	"context"
	"testing"

	"triptracker/events"
	"triptracker/models"
	"triptracker/repository"
	"triptracker/store"
)

// flakyStore wraps a memory store and lets a test replace Update or Set.
type flakyStore struct {
	*store.MemoryStore
	updateFn func(ctx context.Context, collection, id string, fn store.UpdateFunc) error
	setFn    func(ctx context.Context, collection, id string, data store.Document) error
}

func (s *flakyStore) Set(ctx context.Context, collection, id string, data store.Document) error {
	if s.setFn != nil {
		return s.setFn(ctx, collection, id, data)
	}
	return s.MemoryStore.Set(ctx, collection, id, data)
}

func (s *flakyStore) Update(ctx context.Context, collection, id string, fn store.UpdateFunc) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, collection, id, fn)
	}
	return s.MemoryStore.Update(ctx, collection, id, fn)
}

type fixture struct {
	store       *flakyStore
	recorder    *events.Recorder
	itineraries *ItineraryService
	profiles    *ProfileService
	itRepo      *repository.ItineraryRepository
	profileRepo *repository.ProfileRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := &flakyStore{MemoryStore: store.NewMemoryStore()}
	rec := &events.Recorder{}
	itRepo := repository.NewItineraryRepository(s)
	profileRepo := repository.NewProfileRepository(s)
	return &fixture{
		store:       s,
		recorder:    rec,
		itineraries: NewItineraryService(itRepo, nil, rec),
		profiles:    NewProfileService(profileRepo, itRepo, rec),
		itRepo:      itRepo,
		profileRepo: profileRepo,
	}
}

func (f *fixture) addProfile(t *testing.T, mail, name string) {
	t.Helper()
	if err := f.profiles.Create(context.Background(), models.UserProfile{Mail: mail, Name: name}); err != nil {
		t.Fatalf("create profile %s: %v", mail, err)
	}
}

func (f *fixture) addItinerary(t *testing.T, mail, title string, lat, lng float64) models.Itinerary {
	t.Helper()
	it, err := f.itineraries.Create(context.Background(), mail, models.Itinerary{
		Title:    title,
		Location: models.Location{Latitude: lat, Longitude: lng},
	})
	if err != nil {
		t.Fatalf("create itinerary %s: %v", title, err)
	}
	return it
}

func summaryMails(list []models.ProfileSummary) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Mail
	}
	return out
}

func itineraryIDs(list []models.Itinerary) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
