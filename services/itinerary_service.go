package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"triptracker/events"
	"triptracker/models"
	"triptracker/repository"
	"triptracker/utils/errors"
)

// GeoIndex pre-selects itineraries for a viewport; it may be nil.
type GeoIndex interface {
	Add(ctx context.Context, it models.Itinerary) error
	Remove(ctx context.Context, id string) error
	Rebuild(ctx context.Context, itineraries []models.Itinerary) error
	Candidates(ctx context.Context, bounds models.Bounds) ([]string, error)
}

type ItineraryService struct {
	repo      *repository.ItineraryRepository
	index     GeoIndex
	publisher events.Publisher

	mu        sync.Mutex
	listeners []func()
}

func NewItineraryService(repo *repository.ItineraryRepository, index GeoIndex, publisher events.Publisher) *ItineraryService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ItineraryService{repo: repo, index: index, publisher: publisher}
}

// OnChange registers fn to run after every successful write.
func (s *ItineraryService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ItineraryService) changed() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *ItineraryService) ListAll(ctx context.Context) ([]models.Itinerary, error) {
	return s.repo.ListAll(ctx)
}

func (s *ItineraryService) Get(ctx context.Context, id string) (models.Itinerary, error) {
	return s.repo.Get(ctx, id)
}

// Search returns itineraries matching query, optionally restricted to one author.
func (s *ItineraryService) Search(ctx context.Context, query, author string) ([]models.Itinerary, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if author != "" {
		all = ByAuthor(all, author)
	}
	return SearchItineraries(all, query), nil
}

func (s *ItineraryService) PinNames(ctx context.Context, id string) ([]string, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return it.PinNames(), nil
}

// Create stores a new itinerary authored by mail. Counters start at zero.
func (s *ItineraryService) Create(ctx context.Context, mail string, it models.Itinerary) (models.Itinerary, error) {
	if strings.TrimSpace(it.Title) == "" {
		return models.Itinerary{}, errors.NewAPIError("INVALID_ITINERARY", "Title is required", errors.ErrInvalidInput.Status)
	}
	it.ID = ""
	it.UserMail = mail
	it.FlameCount, it.Saves, it.Clicks, it.NumStarts = 0, 0, 0, 0
	return s.save(ctx, it)
}

// Update replaces an itinerary owned by mail. Counters are kept from the
// stored version because they are only changed through IncrementField.
func (s *ItineraryService) Update(ctx context.Context, mail string, it models.Itinerary) (models.Itinerary, error) {
	current, err := s.repo.Get(ctx, it.ID)
	if err != nil {
		return models.Itinerary{}, err
	}
	if current.UserMail != mail {
		return models.Itinerary{}, errors.ErrForbidden
	}
	it.UserMail = current.UserMail
	it.FlameCount, it.Saves, it.Clicks, it.NumStarts = current.FlameCount, current.Saves, current.Clicks, current.NumStarts
	return s.save(ctx, it)
}

// Upsert writes the itinerary as given, last write wins.
func (s *ItineraryService) Upsert(ctx context.Context, it models.Itinerary) (models.Itinerary, error) {
	return s.save(ctx, it)
}

func (s *ItineraryService) save(ctx context.Context, it models.Itinerary) (models.Itinerary, error) {
	saved, err := s.repo.Upsert(ctx, it)
	if err != nil {
		return models.Itinerary{}, err
	}
	if s.index != nil {
		if err := s.index.Add(ctx, saved); err != nil {
			log.Printf("Failed to index itinerary %s: %v", saved.ID, err)
		}
	}
	s.publish(ctx, events.ItineraryUpserted, events.ItineraryEvent{ID: saved.ID, UserMail: saved.UserMail, Title: saved.Title, At: time.Now()})
	s.changed()
	return saved, nil
}

// Remove deletes an itinerary owned by mail. References held elsewhere stay.
func (s *ItineraryService) Remove(ctx context.Context, mail, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.UserMail != mail {
		return errors.ErrForbidden
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			log.Printf("Failed to remove itinerary %s from index: %v", id, err)
		}
	}
	s.publish(ctx, events.ItineraryRemoved, events.ItineraryEvent{ID: id, UserMail: mail, At: time.Now()})
	s.changed()
	return nil
}

func (s *ItineraryService) IncrementField(ctx context.Context, id, field string) (int64, error) {
	n, err := s.repo.IncrementField(ctx, id, field)
	if err != nil {
		return 0, err
	}
	s.changed()
	return n, nil
}

// SetField changes one scalar field of an itinerary owned by mail.
func (s *ItineraryService) SetField(ctx context.Context, mail, id, field string, value any) (models.Itinerary, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Itinerary{}, err
	}
	if current.UserMail != mail {
		return models.Itinerary{}, errors.ErrForbidden
	}
	if err := s.repo.SetField(ctx, id, field, value); err != nil {
		return models.Itinerary{}, err
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Itinerary{}, err
	}
	s.publish(ctx, events.ItineraryUpserted, events.ItineraryEvent{ID: id, UserMail: mail, Title: updated.Title, At: time.Now()})
	s.changed()
	return updated, nil
}

// SeedIfEmpty stores its only when no itinerary exists yet and reports how
// many were written.
func (s *ItineraryService) SeedIfEmpty(ctx context.Context, its []models.Itinerary) (int, error) {
	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Printf("Found %d itineraries, skipping seed", len(existing))
		return 0, nil
	}
	log.Println("No itineraries found, seeding sample data...")
	for i, it := range its {
		if _, err := s.save(ctx, it); err != nil {
			return i, err
		}
	}
	return len(its), nil
}

// Reindex rebuilds the geo index from the stored itineraries.
func (s *ItineraryService) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	return s.index.Rebuild(ctx, all)
}

func (s *ItineraryService) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		log.Printf("Failed to publish %s: %v", subject, err)
	}
}
