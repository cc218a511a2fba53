package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/route"
	"github.com/tripmate/travel-platform/internal/service"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// CheckoutHandler prices offerings and submits checkouts.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *logger.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(svc *service.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, logger: log}
}

// Quote handles GET /api/v1/checkout/quote?type=&id=&days=
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := model.BookingType(q.Get("type"))

	days := 0
	if d := q.Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be a whole number")
			return
		}
		days = parsed
	}

	quote, err := h.checkout.Quote(t, q.Get("id"), days)
	if err != nil {
		h.writeError(w, t, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.checkout.Submit(r.Context(), auth.SessionFrom(r.Context()), req)
	if err != nil {
		h.writeError(w, req.Type, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// writeError sends an unknown offering back to its search route.
func (h *CheckoutHandler) writeError(w http.ResponseWriter, t model.BookingType, err error) {
	status, body := errorFor(err)
	if errors.Is(err, model.ErrNotFound) {
		body.Redirect = route.Search(t)
	}
	logError(h.logger, status, err)
	writeJSON(w, status, body)
}
