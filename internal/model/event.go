package model

import (
	"time"
)

// EventType represents the type of booking event.
type EventType string

const (
	EventTypeBookingCreated   EventType = "created"
	EventTypeBookingConfirmed EventType = "confirmed"
	EventTypeBookingCancelled EventType = "cancelled"
)

// BookingEvent is published whenever a booking is stored or changes status.
type BookingEvent struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	BookingID string        `json:"booking_id"`
	UserID    string        `json:"user_id"`
	Booking   BookingType   `json:"booking_type"`
	Status    BookingStatus `json:"status"`
	Total     float64       `json:"total_price"`
	CreatedAt time.Time     `json:"created_at"`
}
