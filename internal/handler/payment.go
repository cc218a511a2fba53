package handler

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/payment"
	"github.com/tripmate/travel-platform/internal/service"
	"github.com/tripmate/travel-platform/pkg/logger"
	"github.com/tripmate/travel-platform/pkg/metrics"
)

// maxWebhookBytes bounds payment notification bodies.
const maxWebhookBytes = 64 << 10

// PaymentHandler receives signed payment notifications.
type PaymentHandler struct {
	verifier *payment.Verifier
	checkout *service.CheckoutService
	logger   *logger.Logger
}

// NewPaymentHandler creates a new payment webhook handler.
func NewPaymentHandler(verifier *payment.Verifier, checkout *service.CheckoutService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{verifier: verifier, checkout: checkout, logger: log}
}

// Webhook handles POST /api/v1/payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	event, err := h.verifier.Verify(body, r.Header.Get(payment.SignatureHeader))
	if err != nil {
		metrics.PaymentWebhooksTotal.WithLabelValues("unknown", "rejected").Inc()
		if errors.Is(err, payment.ErrMissingSignature) ||
			errors.Is(err, payment.ErrInvalidSignature) ||
			errors.Is(err, payment.ErrStaleSignature) {
			h.logger.Warn("payment webhook rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	if err := h.checkout.CompletePayment(r.Context(), event); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
