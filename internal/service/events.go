// Package service holds the business logic for bookings, checkout, the
// travel assistant and user profiles.
package service

import (
	"context"

	"github.com/tripmate/travel-platform/internal/model"
)

// EventPublisher publishes booking lifecycle events.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, e model.BookingEvent) error
}

// NopPublisher drops every event. It is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingEvent(context.Context, model.BookingEvent) error { return nil }
