package handlers

import (
	"net/http"
	"strconv"

	"triptracker/middleware"
	"triptracker/models"
	"triptracker/services"
	"triptracker/utils/errors"
)

type MapHandler struct {
	mapService *services.MapService
}

type BoundsResponse struct {
	Itineraries []models.Itinerary `json:"itineraries"`
	Count       int                `json:"count"`
	Bounds      models.Bounds      `json:"bounds"`
}

func NewMapHandler(mapService *services.MapService) *MapHandler {
	return &MapHandler{mapService: mapService}
}

func (h *MapHandler) InBounds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var bounds models.Bounds
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"south", &bounds.South},
		{"west", &bounds.West},
		{"north", &bounds.North},
		{"east", &bounds.East},
	} {
		v, err := strconv.ParseFloat(query.Get(p.name), 64)
		if err != nil {
			middleware.WriteError(w, errors.NewAPIError(errors.ErrInvalidInput.Code, "Invalid "+p.name, errors.ErrInvalidInput.Status))
			return
		}
		*p.dst = v
	}
	limit := 0
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			middleware.WriteError(w, errors.NewAPIError(errors.ErrInvalidInput.Code, "Invalid limit", errors.ErrInvalidInput.Status))
			return
		}
		limit = n
	}

	its, err := h.mapService.InBounds(r.Context(), bounds, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoundsResponse{Itineraries: its, Count: len(its), Bounds: bounds})
}

func (h *MapHandler) City(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"city": h.mapService.CityName(r.Context(), lat, lon), "lat": lat, "lon": lon})
}

func (h *MapHandler) Paths(w http.ResponseWriter, r *http.Request) {
	paths, err := h.mapService.Paths(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}
