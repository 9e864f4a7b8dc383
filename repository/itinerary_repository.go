package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"triptracker/models"
	"triptracker/store"
)

const ItineraryCollection = "itineraries"

// ErrUnknownField is returned for a field that cannot be modified in place.
var ErrUnknownField = errors.New("unknown itinerary field")

type ItineraryRepository struct {
	store store.Store
}

func NewItineraryRepository(s store.Store) *ItineraryRepository {
	return &ItineraryRepository{store: s}
}

// NewID returns a fresh itinerary id.
func (r *ItineraryRepository) NewID() string {
	return uuid.New().String()
}

func (r *ItineraryRepository) ListAll(ctx context.Context) ([]models.Itinerary, error) {
	snaps, err := r.store.List(ctx, ItineraryCollection)
	if err != nil {
		log.Printf("Error getting all itineraries: %v", err)
		return nil, err
	}
	itineraries := make([]models.Itinerary, 0, len(snaps))
	for _, snap := range snaps {
		itineraries = append(itineraries, DecodeItinerary(snap.ID, snap.Data))
	}
	return itineraries, nil
}

func (r *ItineraryRepository) Get(ctx context.Context, id string) (models.Itinerary, error) {
	snap, err := r.store.Get(ctx, ItineraryCollection, id)
	if err != nil {
		return models.Itinerary{}, err
	}
	return DecodeItinerary(snap.ID, snap.Data), nil
}

// Upsert writes the whole itinerary document, assigning an id when empty.
func (r *ItineraryRepository) Upsert(ctx context.Context, itinerary models.Itinerary) (models.Itinerary, error) {
	if itinerary.ID == "" {
		itinerary.ID = r.NewID()
	}
	if err := r.store.Set(ctx, ItineraryCollection, itinerary.ID, EncodeItinerary(itinerary)); err != nil {
		log.Printf("Error writing itinerary %s: %v", itinerary.ID, err)
		return models.Itinerary{}, err
	}
	return itinerary, nil
}

func (r *ItineraryRepository) Remove(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ItineraryCollection, id); err != nil {
		log.Printf("Error removing itinerary %s: %v", id, err)
		return err
	}
	return nil
}

// IncrementField adds one to a counter inside a transaction. Aborts are not retried.
func (r *ItineraryRepository) IncrementField(ctx context.Context, id, field string) (int64, error) {
	if !models.IsCounterField(field) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	var next int64
	err := r.store.Update(ctx, ItineraryCollection, id, func(cur store.Document) (store.Document, error) {
		next = getInt64(cur, field) + 1
		cur[field] = next
		return cur, nil
	})
	if err != nil {
		log.Printf("Error incrementing field %s of itinerary %s: %v", field, id, err)
		return 0, err
	}
	return next, nil
}

// SetField replaces one scalar field inside a transaction.
func (r *ItineraryRepository) SetField(ctx context.Context, id, field string, value any) error {
	if err := checkFieldValue(field, value); err != nil {
		return err
	}
	err := r.store.Update(ctx, ItineraryCollection, id, func(cur store.Document) (store.Document, error) {
		cur[field] = store.Normalize(value)
		return cur, nil
	})
	if err != nil {
		log.Printf("Transaction failed for field %s of itinerary %s: %v", field, id, err)
		return err
	}
	return nil
}

func checkFieldValue(field string, value any) error {
	switch field {
	case "title", "description", "startDateAndTime", "endDateAndTime":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expects a string", ErrUnknownField, field)
		}
	case models.FieldFlameCount, models.FieldSaves, models.FieldClicks, models.FieldNumStarts:
		switch value.(type) {
		case int, int32, int64:
		default:
			return fmt.Errorf("%w: %s expects an integer", ErrUnknownField, field)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// EncodeItinerary flattens every field, nested pins and route points included.
func EncodeItinerary(i models.Itinerary) store.Document {
	pins := make([]any, 0, len(i.PinnedPlaces))
	for _, pin := range i.PinnedPlaces {
		pins = append(pins, map[string]any{
			"latitude":    pin.Latitude,
			"longitude":   pin.Longitude,
			"name":        pin.Name,
			"description": pin.Description,
			"image-url":   stringList(pin.ImageURLs),
		})
	}
	route := make([]any, 0, len(i.Route))
	for _, p := range i.Route {
		route = append(route, map[string]any{
			"latitude":  p.Latitude,
			"longitude": p.Longitude,
		})
	}
	return store.Document{
		"id":       i.ID,
		"title":    i.Title,
		"userMail": i.UserMail,
		"location": map[string]any{
			"latitude":  i.Location.Latitude,
			"longitude": i.Location.Longitude,
			"name":      i.Location.Name,
		},
		models.FieldFlameCount: i.FlameCount,
		models.FieldSaves:      i.Saves,
		models.FieldClicks:     i.Clicks,
		models.FieldNumStarts:  i.NumStarts,
		"startDateAndTime":     i.StartDateAndTime,
		"endDateAndTime":       i.EndDateAndTime,
		"pinnedPlaces":         pins,
		"description":          i.Description,
		"route":                route,
	}
}

// DecodeItinerary builds an itinerary from a document keyed by id. Missing or
// malformed fields fall back to zero values.
func DecodeItinerary(id string, doc store.Document) models.Itinerary {
	loc := getMap(doc, "location")
	itinerary := models.Itinerary{
		ID:       id,
		Title:    getString(doc, "title"),
		UserMail: getString(doc, "userMail"),
		Location: models.Location{
			Latitude:  getFloat(loc, "latitude"),
			Longitude: getFloat(loc, "longitude"),
			Name:      getString(loc, "name"),
		},
		FlameCount:       getInt64(doc, models.FieldFlameCount),
		Saves:            getInt64(doc, models.FieldSaves),
		Clicks:           getInt64(doc, models.FieldClicks),
		NumStarts:        getInt64(doc, models.FieldNumStarts),
		StartDateAndTime: getString(doc, "startDateAndTime"),
		EndDateAndTime:   getString(doc, "endDateAndTime"),
		Description:      getString(doc, "description"),
		PinnedPlaces:     []models.Pin{},
		Route:            []models.LatLng{},
	}
	for _, p := range getMaps(doc, "pinnedPlaces") {
		itinerary.PinnedPlaces = append(itinerary.PinnedPlaces, models.Pin{
			Latitude:    getFloat(p, "latitude"),
			Longitude:   getFloat(p, "longitude"),
			Name:        getString(p, "name"),
			Description: getString(p, "description"),
			ImageURLs:   getStrings(p, "image-url"),
		})
	}
	for _, p := range getMaps(doc, "route") {
		itinerary.Route = append(itinerary.Route, models.LatLng{
			Latitude:  getFloat(p, "latitude"),
			Longitude: getFloat(p, "longitude"),
		})
	}
	return itinerary
}
