package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmate/travel-platform/internal/catalog"
	"github.com/tripmate/travel-platform/internal/model"
)

func load(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return c
}

func TestLoad_embeddedFixtures(t *testing.T) {
	c := load(t)

	assert.NotEmpty(t, c.Flights)
	assert.NotEmpty(t, c.Trains)
	assert.NotEmpty(t, c.Buses)
	assert.NotEmpty(t, c.Cars)
	assert.NotEmpty(t, c.Places)
}

func TestParse_invalidJSON(t *testing.T) {
	_, err := catalog.Parse([]byte("{"))
	assert.Error(t, err)
}

func TestSearchFlights_directOnly(t *testing.T) {
	c := load(t)

	all := c.SearchFlights(catalog.FlightFilter{})
	direct := c.SearchFlights(catalog.FlightFilter{DirectOnly: true})

	assert.Len(t, all, len(c.Flights))
	assert.Less(t, len(direct), len(all))
	for _, f := range direct {
		assert.True(t, f.Direct, "flight %s should be direct", f.ID)
	}
}

func TestSearchTrains_directOnlyExcludesTransfers(t *testing.T) {
	c := load(t)

	for _, tr := range c.SearchTrains(catalog.TrainFilter{DirectOnly: true}) {
		assert.False(t, tr.Transfer, "train %s has a transfer", tr.ID)
	}
}

func TestSearchBuses_directOnlyMeansNoStops(t *testing.T) {
	c := load(t)

	buses := c.SearchBuses(catalog.BusFilter{DirectOnly: true})

	require.NotEmpty(t, buses)
	for _, b := range buses {
		assert.Zero(t, b.Stops)
	}
}

func TestSearchCars_typeIsCaseInsensitive(t *testing.T) {
	c := load(t)

	cars := c.SearchCars(catalog.CarFilter{CarType: "suv"})

	require.Len(t, cars, 1)
	assert.Equal(t, "SUV", cars[0].CarType)
	assert.Len(t, c.SearchCars(catalog.CarFilter{}), len(c.Cars))
}

func TestSearchPlaces_matchesNameLocationOrCategory(t *testing.T) {
	c := load(t)

	byName := c.SearchPlaces(catalog.PlaceFilter{Query: "eiffel"})
	byLocation := c.SearchPlaces(catalog.PlaceFilter{Query: "ITALY"})
	byCategory := c.SearchPlaces(catalog.PlaceFilter{Query: "beach"})
	none := c.SearchPlaces(catalog.PlaceFilter{Query: "atlantis"})

	require.Len(t, byName, 1)
	assert.Equal(t, "p1", byName[0].ID)
	require.Len(t, byLocation, 1)
	assert.Equal(t, "Colosseum", byLocation[0].Name)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Santorini", byCategory[0].Name)
	assert.Empty(t, none)
	assert.NotNil(t, none, "empty results are an empty slice")
}

func TestLookup(t *testing.T) {
	c := load(t)

	o, err := c.Lookup(model.BookingTypeCar, "c2")
	require.NoError(t, err)
	assert.Equal(t, model.BookingTypeCar, o.Kind())
	assert.Equal(t, "Ford Explorer", o.Title())

	_, err = c.Lookup(model.BookingTypeFlight, "c2")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = c.Lookup(model.BookingType("boat"), "f1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
