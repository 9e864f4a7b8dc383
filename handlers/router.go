package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"triptracker/middleware"
	"triptracker/services"
)

// Services groups everything the HTTP layer talks to.
type Services struct {
	Auth        *services.AuthService
	Itineraries *services.ItineraryService
	Maps        *services.MapService
	Profiles    *services.ProfileService
	Images      *services.ImageService
	Feed        *services.HomeFeed
}

func NewRouter(svc Services, jwtSecret string, allowedOrigins []string) *mux.Router {
	authHandler := NewAuthHandler(svc.Auth)
	itineraryHandler := NewItineraryHandler(svc.Itineraries)
	mapHandler := NewMapHandler(svc.Maps)
	profileHandler := NewProfileHandler(svc.Profiles, svc.Itineraries)
	imageHandler := NewImageHandler(svc.Images)
	homeHandler := NewHomeHandler(svc.Feed, allowedOrigins)
	requireAuth := middleware.JWTMiddleware(jwtSecret)

	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware())
	r.Use(middleware.CORSMiddleware(allowedOrigins))

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Itinerary routes
	r.HandleFunc("/itineraries", itineraryHandler.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/itineraries/{id}", itineraryHandler.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/itineraries/{id}/pins", itineraryHandler.Pins).Methods("GET", "OPTIONS")
	r.HandleFunc("/itineraries/{id}/increment/{field}", itineraryHandler.Increment).Methods("POST", "OPTIONS")
	r.Handle("/itineraries", requireAuth(http.HandlerFunc(itineraryHandler.Create))).Methods("POST")
	r.Handle("/itineraries/{id}", requireAuth(http.HandlerFunc(itineraryHandler.Update))).Methods("PUT")
	r.Handle("/itineraries/{id}", requireAuth(http.HandlerFunc(itineraryHandler.Patch))).Methods("PATCH")
	r.Handle("/itineraries/{id}", requireAuth(http.HandlerFunc(itineraryHandler.Delete))).Methods("DELETE")

	// Map routes
	mapRouter := r.PathPrefix("/map").Subrouter()
	mapRouter.HandleFunc("/itineraries", mapHandler.InBounds).Methods("GET", "OPTIONS")
	mapRouter.HandleFunc("/city", mapHandler.City).Methods("GET", "OPTIONS")
	mapRouter.HandleFunc("/paths", mapHandler.Paths).Methods("GET", "OPTIONS")

	// Home routes
	r.HandleFunc("/home", homeHandler.Feed).Methods("GET", "OPTIONS")
	r.HandleFunc("/home/stream", homeHandler.Stream).Methods("GET")

	// Profile routes
	r.HandleFunc("/profiles", profileHandler.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/profiles/{mail}", profileHandler.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/profiles/{mail}/favourites", profileHandler.Favourites).Methods("GET", "OPTIONS")
	r.HandleFunc("/profiles/{mail}/itineraries", profileHandler.Itineraries).Methods("GET", "OPTIONS")

	// Routes acting on the authenticated profile
	r.Handle("/me", requireAuth(http.HandlerFunc(profileHandler.Me))).Methods("GET", "OPTIONS")
	r.Handle("/me", requireAuth(http.HandlerFunc(profileHandler.UpdateMe))).Methods("PUT")
	r.Handle("/me", requireAuth(http.HandlerFunc(profileHandler.DeleteMe))).Methods("DELETE")
	meRouter := r.PathPrefix("/me").Subrouter()
	meRouter.Use(requireAuth)
	meRouter.Handle("/following/{mail}", profileHandler.Follow()).Methods("POST", "OPTIONS")
	meRouter.Handle("/following/{mail}", profileHandler.Unfollow()).Methods("DELETE", "OPTIONS")
	meRouter.Handle("/followers/{mail}", profileHandler.RemoveFollower()).Methods("DELETE", "OPTIONS")
	meRouter.Handle("/favourites/{id}", profileHandler.AddFavourite()).Methods("POST", "OPTIONS")
	meRouter.Handle("/favourites/{id}", profileHandler.RemoveFavourite()).Methods("DELETE", "OPTIONS")

	// Image routes
	r.Handle("/images/{kind}", requireAuth(http.HandlerFunc(imageHandler.Upload))).Methods("POST", "OPTIONS")
	r.HandleFunc("/images/{key:.+}", imageHandler.Download).Methods("GET", "OPTIONS")

	return r
}
