package services

import (
	"context"
	"log"
	"sync"
	"time"

	"triptracker/models"
	"triptracker/observable"
)

// PinsShown is how many pin names a summary lists before counting the rest.
const PinsShown = 2

// FeedEntry is an itinerary with its pin names already summarised.
type FeedEntry struct {
	Itinerary  models.Itinerary `json:"itinerary"`
	PinSummary string           `json:"pin_summary"`
}

// HomeFeed keeps the list shown on the home screen. It stays Pending until
// the first load finishes and is reloaded after every itinerary change.
type HomeFeed struct {
	itineraries *ItineraryService
	timeout     time.Duration
	value       *observable.Value[[]FeedEntry]

	mu      sync.Mutex
	running bool
	again   bool
}

func NewHomeFeed(itineraries *ItineraryService, timeout time.Duration) *HomeFeed {
	f := &HomeFeed{
		itineraries: itineraries,
		timeout:     timeout,
		value:       observable.New[[]FeedEntry](),
	}
	itineraries.OnChange(f.Refresh)
	return f
}

func (f *HomeFeed) Value() *observable.Value[[]FeedEntry] {
	return f.value
}

// Refresh reloads the feed in the background. Calls made while a reload is
// running are folded into one more reload.
func (f *HomeFeed) Refresh() {
	f.mu.Lock()
	if f.running {
		f.again = true
		f.mu.Unlock()
		return
	}
	f.running = true
	f.mu.Unlock()

	go func() {
		for {
			f.load()
			f.mu.Lock()
			if !f.again {
				f.running = false
				f.mu.Unlock()
				return
			}
			f.again = false
			f.mu.Unlock()
		}
	}()
}

func (f *HomeFeed) load() {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	all, err := f.itineraries.ListAll(ctx)
	if err != nil {
		log.Printf("Failed to load home feed: %v", err)
		f.value.Fail(err)
		return
	}
	f.value.Set(BuildFeed(all))
}

// BuildFeed turns itineraries into feed entries, keeping their order.
func BuildFeed(itineraries []models.Itinerary) []FeedEntry {
	out := make([]FeedEntry, 0, len(itineraries))
	for _, it := range itineraries {
		out = append(out, FeedEntry{Itinerary: it, PinSummary: PinSummary(it.PinNames(), PinsShown)})
	}
	return out
}
