// Package config reads settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory    = "memory"
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"

	EventsNone  = "none"
	EventsNats  = "nats"
	EventsKafka = "kafka"
)

type Config struct {
	Port             string
	JWTSecret        string
	StoreBackend     string
	MongoURI         string
	MongoDatabase    string
	FirestoreProject string
	RedisAddr        string
	RedisDB          int
	EventsBackend    string
	NatsURL          string
	KafkaBrokers     []string
	KafkaTopic       string
	GeocoderURL      string
	GeocoderAgent    string
	PublicBaseURL    string
	AllowedOrigins   []string
	MapDefaultLimit  int
	RequestTimeout   time.Duration
}

// Load reads envFile when it exists and then the process environment, which
// takes precedence.
func Load(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("No %s file found, using environment only", envFile)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("MONGODB_DATABASE", "triptracker")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_BACKEND", EventsNone)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "triptracker-events")
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "triptracker/1.0")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("MAP_DEFAULT_LIMIT", 50)
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	cfg := &Config{
		Port:             v.GetString("PORT"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		StoreBackend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		MongoURI:         v.GetString("MONGODB_URI"),
		MongoDatabase:    v.GetString("MONGODB_DATABASE"),
		FirestoreProject: v.GetString("FIRESTORE_PROJECT"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisDB:          v.GetInt("REDIS_DB"),
		EventsBackend:    strings.ToLower(v.GetString("EVENTS_BACKEND")),
		NatsURL:          v.GetString("NATS_URL"),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		GeocoderURL:      v.GetString("GEOCODER_URL"),
		GeocoderAgent:    v.GetString("GEOCODER_USER_AGENT"),
		PublicBaseURL:    v.GetString("PUBLIC_BASE_URL"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		MapDefaultLimit:  v.GetInt("MAP_DEFAULT_LIMIT"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI environment variable is not set")
		}
	case BackendFirestore:
		if c.FirestoreProject == "" {
			return errors.New("FIRESTORE_PROJECT environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.EventsBackend {
	case EventsNone, EventsNats, EventsKafka:
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
