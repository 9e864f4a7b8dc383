package handlers

import (
	"net/http"

	"triptracker/middleware"
	"triptracker/models"
	"triptracker/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mail     string `json:"mail"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Surname  string `json:"surname"`
		Pseudo   string `json:"pseudo"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	profile := models.UserProfile{Mail: input.Mail, Name: input.Name, Surname: input.Surname, Pseudo: input.Pseudo}
	token, err := h.authService.Register(r.Context(), profile, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mail     string `json:"mail"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	token, err := h.authService.Login(r.Context(), input.Mail, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
