package services

import (
	"context"
	"log"

	"triptracker/models"
	"triptracker/repository"
	"triptracker/store"
	"triptracker/utils/errors"
)

// CityNamer resolves a map centre to a city name.
type CityNamer interface {
	CityName(ctx context.Context, lat, lon float64) (string, error)
}

type MapService struct {
	repo         *repository.ItineraryRepository
	index        GeoIndex
	geocoder     CityNamer
	defaultLimit int
}

func NewMapService(repo *repository.ItineraryRepository, index GeoIndex, geocoder CityNamer, defaultLimit int) *MapService {
	return &MapService{repo: repo, index: index, geocoder: geocoder, defaultLimit: defaultLimit}
}

// InBounds returns up to limit itineraries anchored inside bounds. A limit of
// zero uses the configured default; a negative limit returns every match.
func (s *MapService) InBounds(ctx context.Context, bounds models.Bounds, limit int) ([]models.Itinerary, error) {
	if !bounds.Valid() {
		return nil, errors.ErrInvalidInput
	}
	if limit == 0 {
		limit = s.defaultLimit
	}

	candidates, err := s.candidates(ctx, bounds)
	if err != nil {
		return nil, err
	}
	return InBounds(candidates, bounds, limit), nil
}

func (s *MapService) candidates(ctx context.Context, bounds models.Bounds) ([]models.Itinerary, error) {
	if s.index != nil {
		ids, err := s.index.Candidates(ctx, bounds)
		if err == nil {
			out := make([]models.Itinerary, 0, len(ids))
			for _, id := range ids {
				it, err := s.repo.Get(ctx, id)
				if errors.Is(err, store.ErrNotFound) {
					log.Printf("Geo index references missing itinerary %s", id)
					continue
				}
				if err != nil {
					return nil, err
				}
				out = append(out, it)
			}
			return out, nil
		}
		log.Printf("Geo index unavailable, scanning all itineraries: %v", err)
	}
	return s.repo.ListAll(ctx)
}

// CityName degrades to an empty name when geocoding fails.
func (s *MapService) CityName(ctx context.Context, lat, lon float64) string {
	if s.geocoder == nil {
		return ""
	}
	name, err := s.geocoder.CityName(ctx, lat, lon)
	if err != nil {
		log.Printf("Reverse geocoding failed for %f,%f: %v", lat, lon, err)
		return ""
	}
	return name
}

// Paths maps itinerary titles to their routes. Titles are not unique, so a
// later itinerary in storage order replaces an earlier one with the same title.
func (s *MapService) Paths(ctx context.Context) (map[string][]models.LatLng, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	paths := make(map[string][]models.LatLng, len(all))
	for _, it := range all {
		paths[it.Title] = it.Route
	}
	return paths, nil
}
