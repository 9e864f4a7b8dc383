package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"triptracker/middleware"
	"triptracker/models"
	"triptracker/services"
)

type ItineraryHandler struct {
	itineraryService *services.ItineraryService
}

type ItineraryListResponse struct {
	Itineraries []models.Itinerary `json:"itineraries"`
	Count       int                `json:"count"`
}

func NewItineraryHandler(itineraryService *services.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itineraryService: itineraryService}
}

func (h *ItineraryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	its, err := h.itineraryService.Search(r.Context(), query.Get("q"), query.Get("user"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ItineraryListResponse{Itineraries: its, Count: len(its)})
}

func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.itineraryService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItineraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	var it models.Itinerary
	if !decodeJSON(w, r, &it) {
		return
	}
	created, err := h.itineraryService.Create(r.Context(), mail, it)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ItineraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	var it models.Itinerary
	if !decodeJSON(w, r, &it) {
		return
	}
	it.ID = mux.Vars(r)["id"]
	updated, err := h.itineraryService.Update(r.Context(), mail, it)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Patch sets a single text field: {"field": "title", "value": "..."}.
func (h *ItineraryHandler) Patch(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	var input struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	updated, err := h.itineraryService.SetField(r.Context(), mail, mux.Vars(r)["id"], input.Field, input.Value)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ItineraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	if err := h.itineraryService.Remove(r.Context(), mail, mux.Vars(r)["id"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItineraryHandler) Increment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, err := h.itineraryService.IncrementField(r.Context(), vars["id"], vars["field"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": vars["field"], "value": n})
}

func (h *ItineraryHandler) Pins(w http.ResponseWriter, r *http.Request) {
	names, err := h.itineraryService.PinNames(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pins": names, "summary": services.PinSummary(names, services.PinsShown)})
}
