package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/manyidi1774/LegalBuddy/internal/model"
	"github.com/manyidi1774/LegalBuddy/pkg/metrics"
)

const (
	// StreamName is the name of the chat activity stream.
	StreamName = "CHAT_EVENTS"

	// SubjectPrefix is the prefix for all chat activity subjects.
	SubjectPrefix = "chat"
)

// EventSubject returns the subject an event of the given type is published on.
func EventSubject(eventType model.EventType) string {
	return fmt.Sprintf("%s.event.%s", SubjectPrefix, eventType)
}

// Publisher sends chat activity events to JetStream.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a publisher on top of a connected client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{js: client.JetStream()}
}

// EnsureStream ensures the activity stream exists with proper configuration.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	_, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Chat activity events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Publish publishes an event to JetStream.
func (p *Publisher) Publish(ctx context.Context, event *model.ChatEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, EventSubject(event.Type), data); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}

// NopPublisher drops every event. It is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event *model.ChatEvent) error { return nil }
