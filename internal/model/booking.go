// Package model defines data structures for the travel booking platform.
package model

import (
	"time"
)

// BookingType is the kind of offering a booking refers to.
type BookingType string

const (
	BookingTypeFlight BookingType = "flight"
	BookingTypeTrain  BookingType = "train"
	BookingTypeBus    BookingType = "bus"
	BookingTypeCar    BookingType = "car"
	BookingTypePlace  BookingType = "place"
)

// BookingTypes lists every booking type in display order.
var BookingTypes = []BookingType{
	BookingTypeFlight,
	BookingTypeTrain,
	BookingTypeBus,
	BookingTypeCar,
	BookingTypePlace,
}

// Valid reports whether t is a known booking type.
func (t BookingType) Valid() bool {
	for _, bt := range BookingTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// Paid reports whether bookings of this type go through payment.
func (t BookingType) Paid() bool {
	return t != BookingTypePlace
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is a user's reservation or itinerary entry for one offering.
type Booking struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	BookingType BookingType    `json:"booking_type"`
	ItemID      string         `json:"item_id"`
	BookingDate time.Time      `json:"booking_date"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	TotalPrice  float64        `json:"total_price"`
	Status      BookingStatus  `json:"status"`
	Details     map[string]any `json:"details"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FilterBookings returns the bookings of one type, preserving order.
func FilterBookings(bookings []Booking, t BookingType) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.BookingType == t {
			out = append(out, b)
		}
	}
	return out
}

// ListBookingsResponse is the response for listing a user's bookings.
type ListBookingsResponse struct {
	Bookings []Booking           `json:"bookings"`
	Total    int                 `json:"total"`
	ByType   map[BookingType]int `json:"by_type"`
}

// NewListBookingsResponse counts bookings per type. Bookings is never nil.
func NewListBookingsResponse(bookings []Booking) *ListBookingsResponse {
	if bookings == nil {
		bookings = []Booking{}
	}
	byType := make(map[BookingType]int, len(BookingTypes))
	for _, t := range BookingTypes {
		byType[t] = 0
	}
	for _, b := range bookings {
		byType[b.BookingType]++
	}
	return &ListBookingsResponse{
		Bookings: bookings,
		Total:    len(bookings),
		ByType:   byType,
	}
}
