package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/middleware"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/service"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// ProfileBookingsPath is the canonical bookings listing.
const ProfileBookingsPath = "/api/v1/profile/bookings"

// BookingHandler handles the signed-in user's bookings.
type BookingHandler struct {
	bookings *service.BookingService
	logger   *logger.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(svc *service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{bookings: svc, logger: log}
}

// List handles GET /api/v1/profile/bookings?type=
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	t, err := middleware.ValidateBookingType(r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	bookings, err := h.bookings.ListForUser(r.Context(), auth.SessionFrom(r.Context()).UserID(), t)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListBookingsResponse(bookings))
}

// Redirect handles GET /api/v1/bookings by pointing at the profile listing.
func (h *BookingHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	target := ProfileBookingsPath
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}

// Get handles GET /api/v1/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateBookingID(id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	b, err := h.bookings.Get(r.Context(), auth.SessionFrom(r.Context()).UserID(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
