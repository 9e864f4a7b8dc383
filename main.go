package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"triptracker/blob"
	"triptracker/config"
	"triptracker/events"
	"triptracker/geocode"
	"triptracker/geoindex"
	"triptracker/handlers"
	"triptracker/models"
	"triptracker/repository"
	"triptracker/services"
	"triptracker/store"
)

func main() {
	var envFile string
	root := &cobra.Command{
		Use:          "triptracker",
		Short:        "Trip tracking backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "path of the optional .env file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	var seedFile string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample itineraries when the store is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, seedFile)
		},
	}
	seed.Flags().StringVar(&seedFile, "file", "data/itineraries.json", "JSON file with a list of itineraries")

	root.AddCommand(serve, seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// app holds the shared clients so they can be closed on shutdown.
type app struct {
	store     store.Store
	mongo     *store.MongoStore
	redis     *redis.Client
	publisher events.Publisher
}

func connect(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	switch cfg.StoreBackend {
	case config.BackendMongo:
		m, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		a.store, a.mongo = m, m
	case config.BackendFirestore:
		f, err := store.ConnectFirestore(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		a.store = f
	default:
		log.Println("Using in-memory store, data is lost on restart")
		a.store = store.NewMemoryStore()
	}

	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			log.Printf("Failed to connect to Redis, geo index and geocode cache disabled: %v", err)
			a.redis.Close()
			a.redis = nil
		} else {
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		}
	}

	switch cfg.EventsBackend {
	case config.EventsNats:
		p, err := events.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.publisher = p
	case config.EventsKafka:
		a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		a.publisher = events.Nop{}
	}
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Printf("Failed to close publisher: %v", err)
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}
}

func (a *app) geoIndex() services.GeoIndex {
	if a.redis == nil {
		return nil
	}
	return geoindex.NewRedisIndex(a.redis)
}

func (a *app) blobs() (blob.Store, error) {
	if a.mongo != nil {
		return blob.NewGridFSStore(a.mongo.Database())
	}
	log.Println("Using in-memory image store")
	return blob.NewMemoryStore(), nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	a, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	blobs, err := a.blobs()
	if err != nil {
		return err
	}

	itRepo := repository.NewItineraryRepository(a.store)
	profileRepo := repository.NewProfileRepository(a.store)

	itineraries := services.NewItineraryService(itRepo, a.geoIndex(), a.publisher)
	profiles := services.NewProfileService(profileRepo, itRepo, a.publisher)
	feed := services.NewHomeFeed(itineraries, cfg.RequestTimeout)
	svc := handlers.Services{
		Auth:        services.NewAuthService(profiles, profileRepo, cfg.JWTSecret),
		Itineraries: itineraries,
		Maps:        services.NewMapService(itRepo, a.geoIndex(), geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderAgent, a.redis), cfg.MapDefaultLimit),
		Profiles:    profiles,
		Images:      services.NewImageService(blobs, cfg.PublicBaseURL),
		Feed:        feed,
	}

	if err := itineraries.Reindex(ctx); err != nil {
		log.Printf("Failed to rebuild geo index: %v", err)
	}
	feed.Refresh()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(svc, cfg.JWTSecret, cfg.AllowedOrigins),
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSeed(ctx context.Context, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var sample []models.Itinerary
	if err := json.Unmarshal(data, &sample); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	a, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	itineraries := services.NewItineraryService(repository.NewItineraryRepository(a.store), a.geoIndex(), a.publisher)
	n, err := itineraries.SeedIfEmpty(ctx, sample)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d itineraries", n)
	return nil
}
