package services

import (
	"fmt"
	"sort"
	"strings"

	"triptracker/models"
)

// InBounds keeps itineraries anchored inside bounds, nearest to the centre
// first with ties broken by id, and caps the result at limit when limit > 0.
func InBounds(itineraries []models.Itinerary, bounds models.Bounds, limit int) []models.Itinerary {
	center := bounds.Center()
	type ranked struct {
		it   models.Itinerary
		dist float64
	}
	var hits []ranked
	for _, it := range itineraries {
		if bounds.Contains(it.Location.Latitude, it.Location.Longitude) {
			point := models.LatLng{Latitude: it.Location.Latitude, Longitude: it.Location.Longitude}
			hits = append(hits, ranked{it: it, dist: models.DistanceKm(center, point)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].it.ID < hits[j].it.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]models.Itinerary, len(hits))
	for i, h := range hits {
		out[i] = h.it
	}
	return out
}

func containsFold(s, query string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(query))
}

// SearchProfiles matches query against name, surname and pseudo.
func SearchProfiles(profiles []models.UserProfile, query string) []models.UserProfile {
	out := []models.UserProfile{}
	for _, p := range profiles {
		if containsFold(p.Name, query) || containsFold(p.Surname, query) || containsFold(p.Pseudo, query) {
			out = append(out, p)
		}
	}
	return out
}

// SearchItineraries matches query against the title and the pin name list.
func SearchItineraries(itineraries []models.Itinerary, query string) []models.Itinerary {
	out := []models.Itinerary{}
	for _, it := range itineraries {
		if containsFold(it.Title, query) || containsFold(fmt.Sprint(it.PinNames()), query) {
			out = append(out, it)
		}
	}
	return out
}

// ByAuthor keeps itineraries written by mail.
func ByAuthor(itineraries []models.Itinerary, mail string) []models.Itinerary {
	out := []models.Itinerary{}
	for _, it := range itineraries {
		if it.UserMail == mail {
			out = append(out, it)
		}
	}
	return out
}

// PinSummary joins the first shown names and counts the rest:
// "Flon, Ouchy, and 3 more".
func PinSummary(names []string, shown int) string {
	if len(names) <= shown {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s, and %d more", strings.Join(names[:shown], ", "), len(names)-shown)
}
