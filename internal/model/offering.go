package model

import "math"

// DefaultRentalDays is the rental period priced when none is given.
const DefaultRentalDays = 3

// TaxRate applies to every paid booking type.
const TaxRate = 0.15

// Offering is a read-only catalog record that can be booked.
type Offering interface {
	OfferingID() string
	Kind() BookingType
	Title() string
	// ListPrice is the price shown at checkout. rentalDays only matters for cars.
	ListPrice(rentalDays int) float64
	// BookingDetails is the snapshot stored in Booking.Details.
	BookingDetails() map[string]any
}

// Flight is a flight fixture.
type Flight struct {
	ID               string  `json:"id"`
	Airline          string  `json:"airline"`
	Logo             string  `json:"logo"`
	Departure        string  `json:"departure"`
	Destination      string  `json:"destination"`
	DepartureAirport string  `json:"departure_airport"`
	ArrivalAirport   string  `json:"arrival_airport"`
	DepartureTime    string  `json:"departure_time"`
	ArrivalTime      string  `json:"arrival_time"`
	Duration         string  `json:"duration"`
	Price            float64 `json:"price"`
	Direct           bool    `json:"direct"`
}

func (f Flight) OfferingID() string { return f.ID }
func (f Flight) Kind() BookingType { return BookingTypeFlight }
func (f Flight) Title() string { return f.Departure + " to " + f.Destination }
func (f Flight) ListPrice(int) float64 { return f.Price }
func (f Flight) BookingDetails() map[string]any {
	return map[string]any{
		"airline":       f.Airline,
		"departure":     f.Departure,
		"destination":   f.Destination,
		"departureTime": f.DepartureTime,
		"arrivalTime":   f.ArrivalTime,
	}
}

// Train is a train fixture.
type Train struct {
	ID            string  `json:"id"`
	Company       string  `json:"company"`
	Departure     string  `json:"departure"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Duration      string  `json:"duration"`
	Class         string  `json:"class"`
	Price         float64 `json:"price"`
	Transfer      bool    `json:"transfer"`
}

func (t Train) OfferingID() string { return t.ID }
func (t Train) Kind() BookingType { return BookingTypeTrain }
func (t Train) Title() string { return t.Departure + " to " + t.Destination }
func (t Train) ListPrice(int) float64 { return t.Price }
func (t Train) BookingDetails() map[string]any {
	return map[string]any{
		"company":       t.Company,
		"departure":     t.Departure,
		"destination":   t.Destination,
		"departureTime": t.DepartureTime,
		"arrivalTime":   t.ArrivalTime,
	}
}

// Bus is a bus fixture.
type Bus struct {
	ID            string   `json:"id"`
	Company       string   `json:"company"`
	Departure     string   `json:"departure"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	Duration      string   `json:"duration"`
	Stops         int      `json:"stops"`
	Amenities     []string `json:"amenities"`
	Price         float64  `json:"price"`
}

func (b Bus) OfferingID() string { return b.ID }
func (b Bus) Kind() BookingType { return BookingTypeBus }
func (b Bus) Title() string { return b.Departure + " to " + b.Destination }
func (b Bus) ListPrice(int) float64 { return b.Price }
func (b Bus) BookingDetails() map[string]any {
	return map[string]any{
		"company":       b.Company,
		"departure":     b.Departure,
		"destination":   b.Destination,
		"departureTime": b.DepartureTime,
		"arrivalTime":   b.ArrivalTime,
	}
}

// Car is a rental car fixture.
type Car struct {
	ID           string  `json:"id"`
	Company      string  `json:"company"`
	CarModel     string  `json:"car_model"`
	CarType      string  `json:"car_type"`
	Location     string  `json:"location"`
	Seats        int     `json:"seats"`
	Transmission string  `json:"transmission"`
	PricePerDay  float64 `json:"price_per_day"`
}

func (c Car) OfferingID() string { return c.ID }
func (c Car) Kind() BookingType { return BookingTypeCar }
func (c Car) Title() string { return c.CarModel }

func (c Car) ListPrice(rentalDays int) float64 {
	if rentalDays <= 0 {
		rentalDays = DefaultRentalDays
	}
	return c.PricePerDay * float64(rentalDays)
}

func (c Car) BookingDetails() map[string]any {
	return map[string]any{
		"company":  c.Company,
		"carModel": c.CarModel,
		"carType":  c.CarType,
		"location": c.Location,
	}
}

// Place is a point of interest. Places are free to add to an itinerary.
type Place struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	PriceRange  string  `json:"price_range"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
}

func (p Place) OfferingID() string { return p.ID }
func (p Place) Kind() BookingType { return BookingTypePlace }
func (p Place) Title() string { return p.Name }
func (p Place) ListPrice(int) float64 { return 0 }
func (p Place) BookingDetails() map[string]any {
	return map[string]any{
		"name":     p.Name,
		"location": p.Location,
		"category": p.Category,
		"imageUrl": p.ImageURL,
	}
}

// PriceBreakdown is the checkout summary. BaseFare + Tax always equals Price.
type PriceBreakdown struct {
	Price    float64 `json:"price"`
	TaxRate  float64 `json:"tax_rate"`
	BaseFare float64 `json:"base_fare"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// NewPriceBreakdown splits a listed price into base fare and tax. Tax is
// rounded to cents first and the base fare takes the remainder, so the two
// always sum to the listed price.
func NewPriceBreakdown(t BookingType, price float64) PriceBreakdown {
	if !t.Paid() {
		return PriceBreakdown{}
	}
	price = RoundCents(price)
	tax := RoundCents(price * TaxRate)
	return PriceBreakdown{
		Price:    price,
		TaxRate:  TaxRate,
		BaseFare: RoundCents(price - tax),
		Tax:      tax,
		Total:    price,
	}
}

// RoundCents rounds an amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
