package handlers

import (
	"encoding/json"
	"net/http"

	"triptracker/middleware"
	"triptracker/utils/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, errors.NewAPIError(errors.ErrInvalidInput.Code, errors.ErrInvalidInput.Message, errors.ErrInvalidInput.Status, err.Error()))
		return false
	}
	return true
}

// currentMail returns the authenticated mail or writes a 401.
func currentMail(w http.ResponseWriter, r *http.Request) (string, bool) {
	mail, ok := middleware.MailFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
	}
	return mail, ok
}
