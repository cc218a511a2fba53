package handler

import (
	"net/http"
	"strconv"

	"github.com/tripmate/travel-platform/internal/catalog"
)

// CatalogHandler serves transport and place search.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

type searchResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

func writeResults[T any](w http.ResponseWriter, results []T) {
	writeJSON(w, http.StatusOK, searchResponse[T]{Results: results, Total: len(results)})
}

// directOnly reads the optional "direct" query flag. Anything unparsable is false.
func directOnly(r *http.Request) bool {
	direct, _ := strconv.ParseBool(r.URL.Query().Get("direct"))
	return direct
}

// Flights handles GET /api/v1/catalog/flights
func (h *CatalogHandler) Flights(w http.ResponseWriter, r *http.Request) {
	writeResults(w, h.catalog.SearchFlights(catalog.FlightFilter{DirectOnly: directOnly(r)}))
}

// Trains handles GET /api/v1/catalog/trains
func (h *CatalogHandler) Trains(w http.ResponseWriter, r *http.Request) {
	writeResults(w, h.catalog.SearchTrains(catalog.TrainFilter{DirectOnly: directOnly(r)}))
}

// Buses handles GET /api/v1/catalog/buses
func (h *CatalogHandler) Buses(w http.ResponseWriter, r *http.Request) {
	writeResults(w, h.catalog.SearchBuses(catalog.BusFilter{DirectOnly: directOnly(r)}))
}

// Cars handles GET /api/v1/catalog/cars
func (h *CatalogHandler) Cars(w http.ResponseWriter, r *http.Request) {
	writeResults(w, h.catalog.SearchCars(catalog.CarFilter{CarType: r.URL.Query().Get("type")}))
}

// Places handles GET /api/v1/catalog/places
func (h *CatalogHandler) Places(w http.ResponseWriter, r *http.Request) {
	writeResults(w, h.catalog.SearchPlaces(catalog.PlaceFilter{Query: r.URL.Query().Get("q")}))
}
