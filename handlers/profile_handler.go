package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"triptracker/middleware"
	"triptracker/models"
	"triptracker/services"
)

type ProfileHandler struct {
	profileService   *services.ProfileService
	itineraryService *services.ItineraryService
}

type ProfileListResponse struct {
	Profiles []models.UserProfile `json:"profiles"`
	Count    int                  `json:"count"`
}

func NewProfileHandler(profileService *services.ProfileService, itineraryService *services.ItineraryService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, itineraryService: itineraryService}
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileListResponse{Profiles: profiles, Count: len(profiles)})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, mux.Vars(r)["mail"])
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	h.writeProfile(w, r, mail)
}

func (h *ProfileHandler) writeProfile(w http.ResponseWriter, r *http.Request, mail string) {
	view, err := h.profileService.Get(r.Context(), mail)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ProfileHandler) Favourites(w http.ResponseWriter, r *http.Request) {
	its, err := h.profileService.Favourites(r.Context(), mux.Vars(r)["mail"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ItineraryListResponse{Itineraries: its, Count: len(its)})
}

func (h *ProfileHandler) Itineraries(w http.ResponseWriter, r *http.Request) {
	its, err := h.itineraryService.Search(r.Context(), "", mux.Vars(r)["mail"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ItineraryListResponse{Itineraries: its, Count: len(its)})
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	var details models.UserProfile
	if !decodeJSON(w, r, &details) {
		return
	}
	updated, err := h.profileService.UpdateDetails(r.Context(), mail, details)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProfileHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	mail, ok := currentMail(w, r)
	if !ok {
		return
	}
	if err := h.profileService.Remove(r.Context(), mail); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// relation wraps a mutation of the caller's relations keyed by a path value.
func (h *ProfileHandler) relation(param string, fn func(r *http.Request, mail, target string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mail, ok := currentMail(w, r)
		if !ok {
			return
		}
		if err := fn(r, mail, mux.Vars(r)[param]); err != nil {
			middleware.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ProfileHandler) Follow() http.HandlerFunc {
	return h.relation("mail", func(r *http.Request, mail, target string) error {
		return h.profileService.Follow(r.Context(), mail, target)
	})
}

func (h *ProfileHandler) Unfollow() http.HandlerFunc {
	return h.relation("mail", func(r *http.Request, mail, target string) error {
		return h.profileService.Unfollow(r.Context(), mail, target)
	})
}

func (h *ProfileHandler) RemoveFollower() http.HandlerFunc {
	return h.relation("mail", func(r *http.Request, mail, follower string) error {
		return h.profileService.RemoveFollower(r.Context(), mail, follower)
	})
}

func (h *ProfileHandler) AddFavourite() http.HandlerFunc {
	return h.relation("id", func(r *http.Request, mail, id string) error {
		return h.profileService.AddFavourite(r.Context(), mail, id)
	})
}

func (h *ProfileHandler) RemoveFavourite() http.HandlerFunc {
	return h.relation("id", func(r *http.Request, mail, id string) error {
		return h.profileService.RemoveFavourite(r.Context(), mail, id)
	})
}
