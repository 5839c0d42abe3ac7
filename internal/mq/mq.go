// Package mq fans blog activity out to a message broker. The server
// publishes an event per contact-form inquiry and per new comment; the
// notifier worker consumes them. RabbitMQ and Google Cloud Pub/Sub
// backends are supported, selected by config.
package mq

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillpress/server/config"
)

// Event is a broker-agnostic activity record. Payload holds the JSON
// encoding of the originating entity; Attrs carry routing hints such as
// the post id.
type Event struct {
	ID      string
	Channel string
	Payload []byte
	Attrs   map[string]string
}

// EventHandler processes one delivered event. A non-nil error nacks the
// delivery so the broker redelivers it.
type EventHandler func(ctx context.Context, ev Event) error

// Backend is implemented per broker.
type Backend interface {
	Publish(ctx context.Context, channel string, payload []byte, attrs map[string]string) (string, error)
	Consume(ctx context.Context, channel string, handler EventHandler) error
	Close() error
}

// Broker wraps a backend behind a stable API.
type Broker struct {
	backend Backend
}

// NewBroker wraps the provided backend.
func NewBroker(backend Backend) *Broker {
	return &Broker{backend: backend}
}

// FromConfig builds a Broker for the backend named in cfg. An empty
// backend name yields a nil Broker, which disables event publishing.
func FromConfig(ctx context.Context, cfg config.MQConfig) (*Broker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := NewRabbit(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return NewBroker(backend), nil
	case "pubsub":
		backend, err := NewPubSub(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return NewBroker(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// Publish sends an event to the named channel and returns its broker id.
func (b *Broker) Publish(ctx context.Context, channel string, payload []byte, attrs map[string]string) (string, error) {
	return b.backend.Publish(ctx, channel, payload, attrs)
}

// Consume delivers events from the named channel to handler until ctx is
// done or the backend fails.
func (b *Broker) Consume(ctx context.Context, channel string, handler EventHandler) error {
	return b.backend.Consume(ctx, channel, handler)
}

// Close releases the backend's connections.
func (b *Broker) Close() error {
	return b.backend.Close()
}
