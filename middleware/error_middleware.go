package middleware

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"

	"triptracker/blob"
	"triptracker/repository"
	"triptracker/store"
	"triptracker/utils/errors"
)

// ErrorMiddleware handles errors and sends a standardized JSON response
func ErrorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("Panic recovered on %s %s: %v", r.Method, r.URL.Path, rec)
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// FromStore maps storage failures to API errors. Unknown errors become 500s.
func FromStore(err error) *errors.APIError {
	var apiErr *errors.APIError
	switch {
	case stderrors.As(err, &apiErr):
		return apiErr
	case stderrors.Is(err, store.ErrNotFound), stderrors.Is(err, blob.ErrNotFound):
		return errors.NewAPIError(errors.ErrNotFound.Code, errors.ErrNotFound.Message, errors.ErrNotFound.Status, err.Error())
	case stderrors.Is(err, store.ErrAlreadyExists):
		return errors.NewAPIError(errors.ErrConflict.Code, errors.ErrConflict.Message, errors.ErrConflict.Status, err.Error())
	case stderrors.Is(err, store.ErrAborted):
		return errors.NewAPIError(errors.ErrConflict.Code, "Concurrent update, try again", http.StatusConflict, err.Error())
	case stderrors.Is(err, repository.ErrUnknownField):
		return errors.NewAPIError(errors.ErrInvalidInput.Code, errors.ErrInvalidInput.Message, errors.ErrInvalidInput.Status, err.Error())
	}
	return errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
}

// WriteError writes err as a JSON APIError, mapping storage failures to
// their HTTP status.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := FromStore(err)
	if apiErr.Status >= 500 {
		log.Printf("Server error %s (Details: %s)", apiErr.Error(), apiErr.Details)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(apiErr)
}
