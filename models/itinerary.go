package models

// Counter fields of an itinerary that can be incremented in place.
const (
	FieldFlameCount = "flameCount"
	FieldSaves      = "saves"
	FieldClicks     = "clicks"
	FieldNumStarts  = "numStarts"
)

// Itinerary is a recorded trip. Route and PinnedPlaces are independently
// ordered; nothing relates a pin to a route point.
type Itinerary struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	UserMail         string   `json:"user_mail"`
	Location         Location `json:"location"`
	FlameCount       int64    `json:"flame_count"`
	Saves            int64    `json:"saves"`
	Clicks           int64    `json:"clicks"`
	NumStarts        int64    `json:"num_starts"`
	StartDateAndTime string   `json:"start_date_and_time"`
	EndDateAndTime   string   `json:"end_date_and_time"`
	PinnedPlaces     []Pin    `json:"pinned_places"`
	Description      string   `json:"description"`
	Route            []LatLng `json:"route"`
}

// Pin is a point of interest inside an itinerary.
type Pin struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"image_urls"`
}

// PinNames returns the names of the pinned places in order.
func (i Itinerary) PinNames() []string {
	names := make([]string, 0, len(i.PinnedPlaces))
	for _, pin := range i.PinnedPlaces {
		names = append(names, pin.Name)
	}
	return names
}

// IsCounterField reports whether field names one of the itinerary counters.
func IsCounterField(field string) bool {
	switch field {
	case FieldFlameCount, FieldSaves, FieldClicks, FieldNumStarts:
		return true
	}
	return false
}
