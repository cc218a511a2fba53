// Package catalog serves the read-only transport and place fixtures that
// users search and book.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tripmate/travel-platform/internal/model"
)

//go:embed fixtures.json
var fixtures []byte

// Catalog holds the fixture offerings. It is immutable after Load.
type Catalog struct {
	Flights []model.Flight `json:"flights"`
	Trains  []model.Train  `json:"trains"`
	Buses   []model.Bus    `json:"buses"`
	Cars    []model.Car    `json:"cars"`
	Places  []model.Place  `json:"places"`
}

// Load parses the embedded fixtures.
func Load() (*Catalog, error) {
	return Parse(fixtures)
}

// Parse builds a catalog from JSON fixture data.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog.Parse: %w", err)
	}
	return &c, nil
}

// FlightFilter narrows flight results.
type FlightFilter struct {
	DirectOnly bool
}

// SearchFlights returns flights matching f in fixture order.
func (c *Catalog) SearchFlights(f FlightFilter) []model.Flight {
	out := make([]model.Flight, 0, len(c.Flights))
	for _, fl := range c.Flights {
		if f.DirectOnly && !fl.Direct {
			continue
		}
		out = append(out, fl)
	}
	return out
}

// TrainFilter narrows train results.
type TrainFilter struct {
	DirectOnly bool
}

// SearchTrains returns trains matching f. Direct means no transfer.
func (c *Catalog) SearchTrains(f TrainFilter) []model.Train {
	out := make([]model.Train, 0, len(c.Trains))
	for _, t := range c.Trains {
		if f.DirectOnly && t.Transfer {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BusFilter narrows bus results.
type BusFilter struct {
	DirectOnly bool
}

// SearchBuses returns buses matching f. Direct means zero stops.
func (c *Catalog) SearchBuses(f BusFilter) []model.Bus {
	out := make([]model.Bus, 0, len(c.Buses))
	for _, b := range c.Buses {
		if f.DirectOnly && b.Stops != 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// CarFilter narrows car results. An empty CarType matches every car.
type CarFilter struct {
	CarType string
}

// SearchCars returns cars whose type equals f.CarType, ignoring case.
func (c *Catalog) SearchCars(f CarFilter) []model.Car {
	out := make([]model.Car, 0, len(c.Cars))
	for _, car := range c.Cars {
		if f.CarType != "" && !strings.EqualFold(car.CarType, f.CarType) {
			continue
		}
		out = append(out, car)
	}
	return out
}

// PlaceFilter narrows place results. An empty Query matches every place.
type PlaceFilter struct {
	Query string
}

// SearchPlaces returns places whose name, location or category contains the query.
func (c *Catalog) SearchPlaces(f PlaceFilter) []model.Place {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.Place, 0, len(c.Places))
	for _, p := range c.Places {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Location), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Lookup resolves an offering by booking type and id.
// Returns model.ErrNotFound when no such offering exists.
func (c *Catalog) Lookup(t model.BookingType, id string) (model.Offering, error) {
	switch t {
	case model.BookingTypeFlight:
		for _, f := range c.Flights {
			if f.ID == id {
				return f, nil
			}
		}
	case model.BookingTypeTrain:
		for _, tr := range c.Trains {
			if tr.ID == id {
				return tr, nil
			}
		}
	case model.BookingTypeBus:
		for _, b := range c.Buses {
			if b.ID == id {
				return b, nil
			}
		}
	case model.BookingTypeCar:
		for _, car := range c.Cars {
			if car.ID == id {
				return car, nil
			}
		}
	case model.BookingTypePlace:
		for _, p := range c.Places {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("catalog.Lookup %s %q: %w", t, id, model.ErrNotFound)
}
