package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCityName_PrefersCityThenTown(t *testing.T) {
	var gotAgent, gotLat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotLat = r.URL.Query().Get("lat")
		if r.URL.Query().Get("lon") == "1.000000" {
			w.Write([]byte(`{"address":{"town":"Morges","village":"Tolochenaz"}}`))
			return
		}
		w.Write([]byte(`{"address":{"city":"Lausanne","town":"ignored"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "triptracker-test", nil)
	name, err := c.CityName(context.Background(), 46.519100, 6.632300)
	if err != nil {
		t.Fatalf("CityName: %v", err)
	}
	if name != "Lausanne" {
		t.Fatalf("expected Lausanne, got %q", name)
	}
	if gotAgent != "triptracker-test" || gotLat != "46.519100" {
		t.Fatalf("unexpected request agent=%q lat=%q", gotAgent, gotLat)
	}

	name, _ = c.CityName(context.Background(), 46.5, 1)
	if name != "Morges" {
		t.Fatalf("expected town fallback, got %q", name)
	}
}

func TestCityName_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "0.000000" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ua", nil)
	if _, err := c.CityName(context.Background(), 10, 10); err == nil {
		t.Fatal("expected an error for a 503")
	}
	if _, err := c.CityName(context.Background(), 0, 0); err == nil {
		t.Fatal("expected an error for an API error body")
	}
	if _, err := c.CityName(context.Background(), 120, 0); err == nil {
		t.Fatal("expected an error for invalid coordinates")
	}
}
