// Package geoindex keeps itinerary anchor points in a Redis geo set so map
// viewport queries do not have to scan every itinerary.
package geoindex

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/redis/go-redis/v9"

	"triptracker/models"
)

const itineraryKey = "itineraries:geo"

// ErrBoxTooWide is returned when the bounds cannot be expressed as one box.
var ErrBoxTooWide = errors.New("bounds too wide for a geo box search")

type RedisIndex struct {
	client *redis.Client
}

func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func (idx *RedisIndex) Add(ctx context.Context, it models.Itinerary) error {
	return idx.client.GeoAdd(ctx, itineraryKey, &redis.GeoLocation{
		Name:      it.ID,
		Longitude: it.Location.Longitude,
		Latitude:  it.Location.Latitude,
	}).Err()
}

func (idx *RedisIndex) Remove(ctx context.Context, id string) error {
	return idx.client.ZRem(ctx, itineraryKey, id).Err()
}

// Rebuild replaces the whole index with the given itineraries.
func (idx *RedisIndex) Rebuild(ctx context.Context, itineraries []models.Itinerary) error {
	if err := idx.client.Del(ctx, itineraryKey).Err(); err != nil {
		return err
	}
	added := 0
	for _, it := range itineraries {
		if err := idx.Add(ctx, it); err != nil {
			log.Printf("Failed to add itinerary %s to Redis geo set: %v", it.ID, err)
			continue
		}
		added++
	}
	log.Printf("Indexed %d itineraries into Redis", added)
	return nil
}

// Candidates returns the ids of indexed itineraries inside a box that covers
// bounds. The box may be slightly larger, so callers filter exactly afterwards.
func (idx *RedisIndex) Candidates(ctx context.Context, bounds models.Bounds) ([]string, error) {
	width, height, err := boxSize(bounds)
	if err != nil {
		return nil, err
	}
	center := bounds.Center()
	results, err := idx.client.GeoSearchLocation(ctx, itineraryKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude: center.Longitude,
			Latitude:  center.Latitude,
			BoxWidth:  width,
			BoxHeight: height,
			BoxUnit:   "km",
			Sort:      "ASC",
		},
	}).Result()
	if err != nil {
		log.Printf("Redis GeoSearch error: %v", err)
		return nil, err
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Name)
	}
	return ids, nil
}

// maxBoxSpan is the widest longitude span still answered by GEOSEARCH.
// Wider viewports are scanned instead.
const maxBoxSpan = 90.0

// boxSize returns a GEOSEARCH BYBOX size that contains every point of b.
// Redis measures a point's east-west offset along its own parallel, so the
// width is the parallel arc at the latitude closest to the equator.
func boxSize(b models.Bounds) (width, height float64, err error) {
	span := b.LngSpan()
	if span > maxBoxSpan || !b.Valid() {
		return 0, 0, ErrBoxTooWide
	}
	widest := b.South
	switch {
	case b.South <= 0 && b.North >= 0:
		widest = 0
	case math.Abs(b.North) < math.Abs(b.South):
		widest = b.North
	}
	width = parallelArcKm(widest, span)
	height = models.DistanceKm(
		models.LatLng{Latitude: b.South, Longitude: 0},
		models.LatLng{Latitude: b.North, Longitude: 0},
	)
	const margin = 1.02
	// GEOSEARCH rejects zero-sized boxes.
	return math.Max(width*margin, 0.001), math.Max(height*margin, 0.001), nil
}

// parallelArcKm is the length of span degrees of longitude along the parallel
// at lat. It is never shorter than the great-circle distance between the ends.
func parallelArcKm(lat, span float64) float64 {
	return models.EarthRadiusKm * math.Cos(lat*math.Pi/180) * span * math.Pi / 180
}
