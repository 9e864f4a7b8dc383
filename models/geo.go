package models

import "math"

const EarthRadiusKm = 6371.0

// Location is a named geographic point, used as an itinerary anchor.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// LatLng is a single route point.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Bounds is a rectangular lat/lng region such as a visible map viewport.
// When West > East the region crosses the antimeridian.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Valid reports whether the bounds describe a real region.
func (b Bounds) Valid() bool {
	return b.South >= -90 && b.North <= 90 && b.South <= b.North &&
		b.West >= -180 && b.West <= 180 && b.East >= -180 && b.East <= 180
}

// Contains reports whether the point lies inside the bounds, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	if lat < b.South || lat > b.North {
		return false
	}
	if b.West <= b.East {
		return lng >= b.West && lng <= b.East
	}
	return lng >= b.West || lng <= b.East
}

// LngSpan is the width of the bounds in degrees of longitude.
func (b Bounds) LngSpan() float64 {
	span := b.East - b.West
	if span < 0 {
		span += 360
	}
	return span
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() LatLng {
	lng := b.West + b.LngSpan()/2
	if lng > 180 {
		lng -= 360
	}
	return LatLng{Latitude: (b.South + b.North) / 2, Longitude: lng}
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b LatLng) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
