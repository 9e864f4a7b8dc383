// Package events publishes domain changes to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
)

const (
	ItineraryUpserted = "itinerary.upserted"
	ItineraryRemoved  = "itinerary.removed"
	ProfileFollowed   = "profile.followed"
	ProfileUnfollowed = "profile.unfollowed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// ItineraryEvent is the payload of itinerary subjects.
type ItineraryEvent struct {
	ID       string    `json:"id"`
	UserMail string    `json:"user_mail"`
	Title    string    `json:"title,omitempty"`
	At       time.Time `json:"at"`
}

// RelationEvent is the payload of follow subjects.
type RelationEvent struct {
	Actor  string    `json:"actor"`
	Target string    `json:"target"`
	At     time.Time `json:"at"`
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("triptracker"))
	if err != nil {
		return nil, fmt.Errorf("nats connection failed: %w", err)
	}
	log.Printf("Connected to NATS at %s", url)
	return &NatsPublisher{nc: nc}, nil
}

func (p *NatsPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}
	return p.nc.Publish(subject, data)
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}

// KafkaPublisher writes every subject to one topic, keyed by subject.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(subject),
		Value:   data,
		Headers: []kafka.Header{{Key: "subject", Value: []byte(subject)}},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Subject string
	Payload any
}

func (r *Recorder) Publish(_ context.Context, subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Subject: subject, Payload: payload})
	return nil
}

// Subjects lists the recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

func (r *Recorder) Close() error { return nil }
