package model

import "time"

// Passenger holds the contact fields collected at checkout.
type Passenger struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Quote is the priced view of an offering before submission.
type Quote struct {
	Type       BookingType    `json:"type"`
	ItemID     string         `json:"item_id"`
	Title      string         `json:"title"`
	RentalDays int            `json:"rental_days,omitempty"`
	Breakdown  PriceBreakdown `json:"breakdown"`
	Offering   Offering       `json:"offering"`
}

// CheckoutRequest is the submitted checkout form.
type CheckoutRequest struct {
	Type       BookingType `json:"type"`
	ItemID     string      `json:"item_id"`
	RentalDays int         `json:"rental_days,omitempty"`
	StartDate  *time.Time  `json:"start_date,omitempty"`
	EndDate    *time.Time  `json:"end_date,omitempty"`
	Passenger  Passenger   `json:"passenger"`
}

// CheckoutResult tells the client where to go next. PaymentURL is set for
// paid bookings and must be opened in a new browsing context.
type CheckoutResult struct {
	Booking    Booking        `json:"booking"`
	Breakdown  PriceBreakdown `json:"breakdown"`
	PaymentURL string         `json:"payment_url,omitempty"`
	Next       string         `json:"next"`
}

// PaymentSessionRequest is sent to the payment-session creation endpoint.
type PaymentSessionRequest struct {
	Amount         float64        `json:"amount"`
	Currency       string         `json:"currency"`
	BookingDetails map[string]any `json:"bookingDetails"`
}

// PaymentSession is the created external checkout page.
type PaymentSession struct {
	ID  string `json:"session_id,omitempty"`
	URL string `json:"url"`
}
