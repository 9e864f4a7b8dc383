package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"triptracker/blob"
	"triptracker/repository"
	"triptracker/store"
	"triptracker/utils/errors"
)

const secret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestJWTMiddleware(t *testing.T) {
	var seen string
	h := JWTMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = MailFromContext(r.Context())
	}))
	valid := signed(t, jwt.MapClaims{"mail": "ana@mail.ch", "exp": time.Now().Add(time.Hour).Unix()}, secret)

	cases := []struct {
		name   string
		header string
		query  string
		status int
		mail   string
	}{
		{"header", "Bearer " + valid, "", http.StatusOK, "ana@mail.ch"},
		{"query token ignored", "", "?token=" + valid, http.StatusUnauthorized, ""},
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + signed(t, jwt.MapClaims{"mail": "ana@mail.ch"}, "other"), "", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signed(t, jwt.MapClaims{"mail": "ana@mail.ch", "exp": time.Now().Add(-time.Hour).Unix()}, secret), "", http.StatusUnauthorized, ""},
		{"no mail", "Bearer " + signed(t, jwt.MapClaims{"userID": "42"}, secret), "", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if seen != tc.mail {
				t.Fatalf("mail = %q, want %q", seen, tc.mail)
			}
		})
	}
}

func TestWriteErrorMapsStoreErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("get profile: %w", store.ErrNotFound))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	var body errors.APIError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != errors.ErrNotFound.Code {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestFromStore(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound},
		{"blob not found", blob.ErrNotFound, http.StatusNotFound},
		{"already exists", fmt.Errorf("create: %w", store.ErrAlreadyExists), http.StatusConflict},
		{"aborted", fmt.Errorf("%w: write conflict", store.ErrAborted), http.StatusConflict},
		{"unknown field", fmt.Errorf("%w: route", repository.ErrUnknownField), http.StatusBadRequest},
		{"api error kept", errors.ErrForbidden, http.StatusForbidden},
		{"other", fmt.Errorf("socket closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromStore(tc.err).Status; got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestErrorMiddlewareRecovers(t *testing.T) {
	h := ErrorMiddleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/itineraries", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("preflight: status %d, headers %v", rr.Code, rr.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/itineraries", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin: status %d, headers %v", rr.Code, rr.Header())
	}
}
