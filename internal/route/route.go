// Package route names the client-side paths the API directs users to.
package route

import "github.com/tripmate/travel-platform/internal/model"

// Client routes rendered by the web app.
const (
	Home             = "/"
	SignIn           = "/signin"
	SignUp           = "/signup"
	Assistant        = "/assistant"
	Flights          = "/flights"
	Trains           = "/trains"
	Buses            = "/buses"
	Cars             = "/cars"
	Places           = "/places"
	Checkout         = "/checkout"
	BookingConfirmed = "/booking-confirmed"
	PaymentSuccess   = "/payment-success"
	Profile          = "/profile"
	ProfileBookings  = "/profile/bookings"
	Bookings         = "/bookings"
)

// Search returns the search route for a booking type.
func Search(t model.BookingType) string {
	switch t {
	case model.BookingTypeFlight:
		return Flights
	case model.BookingTypeTrain:
		return Trains
	case model.BookingTypeBus:
		return Buses
	case model.BookingTypeCar:
		return Cars
	case model.BookingTypePlace:
		return Places
	}
	return Home
}

// Resolve maps a requested client path to the path that is actually rendered.
// The generic bookings path redirects to the profile bookings list and
// unknown paths fall back to home.
func Resolve(path string) (string, bool) {
	switch path {
	case Bookings:
		return ProfileBookings, true
	case Home, SignIn, SignUp, Assistant, Flights, Trains, Buses, Cars, Places,
		Checkout, BookingConfirmed, PaymentSuccess, Profile, ProfileBookings:
		return path, true
	}
	return Home, false
}
