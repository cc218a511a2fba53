package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tripmate/travel-platform/internal/model"
)

const (
	// StreamName is the JetStream stream holding booking events.
	StreamName = "BOOKINGS"

	// SubjectPrefix starts every booking event subject.
	SubjectPrefix = "booking"
)

// EventPublisher publishes booking lifecycle events to JetStream.
type EventPublisher struct {
	js jetstream.JetStream
}

// NewEventPublisher creates a publisher on client's JetStream context.
func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{js: client.JetStream()}
}

// EnsureStream creates the bookings stream if it does not exist.
func (p *EventPublisher) EnsureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  2 * time.Minute,
		Description: "Booking lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for an event, e.g. booking.created.flight.
func Subject(e model.BookingEvent) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, e.Type, e.Booking)
}

// PublishBookingEvent publishes e. The event id doubles as the JetStream
// message id so retries are deduplicated.
func (p *EventPublisher) PublishBookingEvent(ctx context.Context, e model.BookingEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, Subject(e), data, jetstream.WithMsgID(e.ID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
