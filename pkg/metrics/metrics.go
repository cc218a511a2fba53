// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// BookingsCreatedTotal counts stored bookings.
	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings stored, by booking type and initial status",
		},
		[]string{"type", "status"},
	)

	// BookingStatusTransitionsTotal counts pending bookings resolved by payment outcome.
	BookingStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"to"},
	)

	// BookingStoreErrorsTotal counts failed booking store operations.
	BookingStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_store_errors_total",
			Help: "Booking store failures by operation",
		},
		[]string{"operation"},
	)

	// AssistantTurnsTotal counts assistant turns by outcome.
	AssistantTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Assistant conversation turns by outcome",
		},
		[]string{"outcome"},
	)

	// ConversationsActive tracks open assistant conversations.
	ConversationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_conversations_active",
			Help: "Number of assistant conversations held in memory",
		},
	)

	// LLMRequestDuration tracks language-model call latency.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language model request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// PaymentSessionsTotal counts payment-session creation attempts.
	PaymentSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_sessions_total",
			Help: "Payment sessions requested, by outcome",
		},
		[]string{"outcome"},
	)

	// PaymentWebhooksTotal counts received payment notifications.
	PaymentWebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment webhooks received, by event type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// AuthOperationsTotal counts auth-service pass-through calls.
	AuthOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Auth operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordLLMRequest records metrics for one language-model call.
func RecordLLMRequest(provider, model, status string, seconds float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(seconds)
	if model == "" {
		return
	}
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordAuth records an auth operation outcome.
func RecordAuth(operation string, err error) {
	AuthOperationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
