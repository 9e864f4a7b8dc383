package repository

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"triptracker/models"
	"triptracker/store"
)

func sampleItinerary() models.Itinerary {
	return models.Itinerary{
		ID:       "trip-1",
		Title:    "Lausanne old town",
		UserMail: "ana@example.com",
		Location: models.Location{Latitude: 46.5191, Longitude: 6.6323, Name: "Lausanne"},
		FlameCount:       12,
		Saves:            3,
		Clicks:           40,
		NumStarts:        7,
		StartDateAndTime: "2024-05-01T09:00:00",
		EndDateAndTime:   "2024-05-01T12:30:00",
		PinnedPlaces: []models.Pin{
			{Latitude: 46.5225, Longitude: 6.6353, Name: "Cathédrale", Description: "Gothic", ImageURLs: []string{"https://img/1", "https://img/2"}},
			{Latitude: 46.5197, Longitude: 6.6291, Name: "Flon", Description: "", ImageURLs: []string{}},
		},
		Description: "A walk",
		Route: []models.LatLng{
			{Latitude: 46.5191, Longitude: 6.6323},
			{Latitude: 46.5225, Longitude: 6.6353},
		},
	}
}

func TestItineraryRoundTrip_MemoryStore(t *testing.T) {
	ctx := context.Background()
	repo := NewItineraryRepository(store.NewMemoryStore())
	want := sampleItinerary()

	if _, err := repo.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := repo.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestItineraryRoundTrip_BSON(t *testing.T) {
	want := sampleItinerary()
	raw, err := bson.Marshal(map[string]any(EncodeItinerary(want)))
	if err != nil {
		t.Fatalf("bson.Marshal: %v", err)
	}
	var decoded bson.M
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("bson.Unmarshal: %v", err)
	}

	got := DecodeItinerary(want.ID, store.NormalizeDocument(decoded))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bson round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestDecodeItinerary_Defaults(t *testing.T) {
	got := DecodeItinerary("bare", store.Document{
		"title":        42,
		"saves":        "many",
		"pinnedPlaces": []any{map[string]any{"name": "only a name"}, "junk"},
	})
	want := models.Itinerary{
		ID:           "bare",
		PinnedPlaces: []models.Pin{{Name: "only a name", ImageURLs: []string{}}},
		Route:        []models.LatLng{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("defaults mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestDecodeItinerary_AcceptsAnyNumberType(t *testing.T) {
	got := DecodeItinerary("n", store.Document{
		"flameCount": int32(5),
		"clicks":     float64(9),
		"location":   map[string]any{"latitude": int64(46), "longitude": 6.5},
	})
	if got.FlameCount != 5 || got.Clicks != 9 || got.Location.Latitude != 46 || got.Location.Longitude != 6.5 {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestItineraryUpsert_AssignsID(t *testing.T) {
	repo := NewItineraryRepository(store.NewMemoryStore())
	saved, err := repo.Upsert(context.Background(), models.Itinerary{Title: "new"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected an assigned id")
	}
}

func TestItineraryRemove_OnlyThatDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewItineraryRepository(store.NewMemoryStore())
	_, _ = repo.Upsert(ctx, models.Itinerary{ID: "a"})
	_, _ = repo.Upsert(ctx, models.Itinerary{ID: "b"})

	if err := repo.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.Get(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected a to be gone, got %v", err)
	}
	all, _ := repo.ListAll(ctx)
	if len(all) != 1 || all[0].ID != "b" {
		t.Fatalf("unexpected remaining itineraries %+v", all)
	}
}

func TestIncrementField_Validation(t *testing.T) {
	ctx := context.Background()
	repo := NewItineraryRepository(store.NewMemoryStore())
	if _, err := repo.IncrementField(ctx, "a", "title"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := repo.IncrementField(ctx, "missing", models.FieldSaves); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementField_SerializedNeverLoses(t *testing.T) {
	ctx := context.Background()
	repo := NewItineraryRepository(store.NewMemoryStore())
	_, _ = repo.Upsert(ctx, models.Itinerary{ID: "a"})

	for i := 1; i <= 25; i++ {
		n, err := repo.IncrementField(ctx, "a", models.FieldClicks)
		if err != nil {
			t.Fatalf("IncrementField: %v", err)
		}
		if n != int64(i) {
			t.Fatalf("expected %d, got %d", i, n)
		}
	}
}

func TestIncrementField_ConcurrentCountsOnlyCommits(t *testing.T) {
	ctx := context.Background()
	repo := NewItineraryRepository(store.NewMemoryStore())
	_, _ = repo.Upsert(ctx, models.Itinerary{ID: "a"})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int64
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementField(ctx, "a", models.FieldFlameCount)
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrAborted) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FlameCount != committed {
		t.Fatalf("flame count %d does not match %d committed increments", got.FlameCount, committed)
	}
	if committed == 0 {
		t.Fatal("expected at least one committed increment")
	}
}

func TestSetField(t *testing.T) {
	ctx := context.Background()
	repo := NewItineraryRepository(store.NewMemoryStore())
	_, _ = repo.Upsert(ctx, sampleItinerary())

	if err := repo.SetField(ctx, "trip-1", "title", "Renamed"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := repo.SetField(ctx, "trip-1", models.FieldSaves, 100); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	got, _ := repo.Get(ctx, "trip-1")
	if got.Title != "Renamed" || got.Saves != 100 {
		t.Fatalf("fields not updated: %+v", got)
	}
	if err := repo.SetField(ctx, "trip-1", "route", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := repo.SetField(ctx, "ghost", "title", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
