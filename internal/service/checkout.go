package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/payment"
	"github.com/tripmate/travel-platform/internal/route"
	"github.com/tripmate/travel-platform/pkg/logger"
	"github.com/tripmate/travel-platform/pkg/metrics"
	"github.com/tripmate/travel-platform/pkg/tracing"
)

// Offerings resolves catalog items.
type Offerings interface {
	Lookup(t model.BookingType, id string) (model.Offering, error)
}

// PaymentGateway creates hosted checkout pages.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req model.PaymentSessionRequest) (model.PaymentSession, error)
}

// CheckoutConfig holds payment settings.
type CheckoutConfig struct {
	Currency string
	Timeout  time.Duration
}

// CheckoutService prices offerings and turns a checkout form into a booking.
type CheckoutService struct {
	offerings Offerings
	bookings  *BookingService
	payments  PaymentGateway
	cfg       CheckoutConfig
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewCheckoutService creates a checkout service. payments may be nil when
// no payment provider is configured; paid checkouts then fail with
// model.ErrUnavailable.
func NewCheckoutService(offerings Offerings, bookings *BookingService, payments PaymentGateway, cfg CheckoutConfig, log *logger.Logger) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &CheckoutService{
		offerings: offerings,
		bookings:  bookings,
		payments:  payments,
		cfg:       cfg,
		logger:    log.Named("checkout"),
		tracer:    tracing.Tracer("service"),
	}
}

// Quote prices an offering. rentalDays only applies to cars and defaults to
// model.DefaultRentalDays.
func (s *CheckoutService) Quote(t model.BookingType, itemID string, rentalDays int) (model.Quote, error) {
	if !t.Valid() {
		return model.Quote{}, fmt.Errorf("service.CheckoutService.Quote: unknown booking type %q: %w", t, model.ErrValidation)
	}
	if rentalDays < 0 {
		return model.Quote{}, fmt.Errorf("service.CheckoutService.Quote: rental days cannot be negative: %w", model.ErrValidation)
	}
	o, err := s.offerings.Lookup(t, itemID)
	if err != nil {
		return model.Quote{}, fmt.Errorf("service.CheckoutService.Quote: %w", err)
	}

	q := model.Quote{
		Type:      t,
		ItemID:    itemID,
		Title:     o.Title(),
		Offering:  o,
		Breakdown: model.NewPriceBreakdown(t, o.ListPrice(rentalDays)),
	}
	if t == model.BookingTypeCar {
		q.RentalDays = rentalDays
		if q.RentalDays == 0 {
			q.RentalDays = model.DefaultRentalDays
		}
	}
	return q, nil
}

// Submit books the offering for the session's user. Places are booked as
// confirmed and free with no payment. Paid types are booked as pending and a
// payment session is created; if that fails the booking is cancelled.
func (s *CheckoutService) Submit(ctx context.Context, sess *auth.Session, req model.CheckoutRequest) (model.CheckoutResult, error) {
	if !sess.SignedIn() {
		return model.CheckoutResult{}, fmt.Errorf("service.CheckoutService.Submit: %w", model.ErrUnauthenticated)
	}
	if err := validatePassenger(req.Passenger); err != nil {
		return model.CheckoutResult{}, err
	}

	q, err := s.Quote(req.Type, req.ItemID, req.RentalDays)
	if err != nil {
		return model.CheckoutResult{}, fmt.Errorf("service.CheckoutService.Submit: %w", err)
	}
	if req.Type.Paid() && s.payments == nil {
		return model.CheckoutResult{}, fmt.Errorf("service.CheckoutService.Submit: payments are not configured: %w", model.ErrUnavailable)
	}

	details := q.Offering.BookingDetails()
	details["passenger"] = req.Passenger
	if q.RentalDays > 0 {
		details["rentalDays"] = q.RentalDays
	}

	b := model.Booking{
		BookingType: req.Type,
		ItemID:      req.ItemID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalPrice:  q.Breakdown.Total,
		Status:      model.BookingStatusPending,
		Details:     details,
	}
	if !req.Type.Paid() {
		b.Status = model.BookingStatusConfirmed
		b.TotalPrice = 0
	}

	booking, err := s.bookings.Create(ctx, sess, b)
	if err != nil {
		return model.CheckoutResult{}, fmt.Errorf("service.CheckoutService.Submit: %w", err)
	}

	if !req.Type.Paid() {
		return model.CheckoutResult{Booking: booking, Breakdown: q.Breakdown, Next: route.ProfileBookings}, nil
	}

	ps, err := s.createPaymentSession(ctx, booking, q)
	if err != nil {
		if _, cancelErr := s.bookings.Cancel(context.WithoutCancel(ctx), booking.ID); cancelErr != nil {
			s.logger.Error("failed to cancel booking after payment failure",
				zap.String("booking_id", booking.ID), zap.Error(cancelErr))
		}
		return model.CheckoutResult{}, fmt.Errorf("service.CheckoutService.Submit: %w", err)
	}

	return model.CheckoutResult{
		Booking:    booking,
		Breakdown:  q.Breakdown,
		PaymentURL: ps.URL,
		Next:       route.PaymentSuccess,
	}, nil
}

func (s *CheckoutService) createPaymentSession(ctx context.Context, b model.Booking, q model.Quote) (model.PaymentSession, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.CreatePaymentSession", trace.WithAttributes(
		attribute.String("booking.id", b.ID),
		attribute.Float64("payment.amount", q.Breakdown.Total),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	details := make(map[string]any, len(b.Details)+4)
	for k, v := range b.Details {
		details[k] = v
	}
	details["booking_id"] = b.ID
	details["type"] = string(b.BookingType)
	details["item_id"] = b.ItemID
	details["title"] = q.Title

	ps, err := s.payments.CreateSession(ctx, model.PaymentSessionRequest{
		Amount:         q.Breakdown.Total,
		Currency:       s.cfg.Currency,
		BookingDetails: details,
	})
	if err != nil {
		metrics.PaymentSessionsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("payment session creation failed", zap.String("booking_id", b.ID), zap.Error(err))
		if !errors.Is(err, model.ErrUpstream) {
			err = fmt.Errorf("%w: %w", model.ErrUpstream, err)
		}
		return model.PaymentSession{}, err
	}

	metrics.PaymentSessionsTotal.WithLabelValues("success").Inc()
	s.logger.Info("payment session created", zap.String("booking_id", b.ID), zap.String("session_id", ps.ID))
	return ps, nil
}

// CompletePayment applies a verified payment webhook to its booking.
// Repeated deliveries for a booking that already left pending are ignored.
func (s *CheckoutService) CompletePayment(ctx context.Context, e payment.Event) error {
	var err error
	switch e.Type {
	case payment.EventSessionCompleted:
		_, err = s.bookings.Confirm(ctx, e.BookingID)
	case payment.EventSessionExpired:
		_, err = s.bookings.Cancel(ctx, e.BookingID)
	default:
		metrics.PaymentWebhooksTotal.WithLabelValues(e.Type, "ignored").Inc()
		return nil
	}

	if errors.Is(err, model.ErrConflict) {
		metrics.PaymentWebhooksTotal.WithLabelValues(e.Type, "duplicate").Inc()
		s.logger.Info("payment event for settled booking ignored",
			zap.String("booking_id", e.BookingID), zap.String("type", e.Type))
		return nil
	}
	if err != nil {
		metrics.PaymentWebhooksTotal.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("service.CheckoutService.CompletePayment: %w", err)
	}
	metrics.PaymentWebhooksTotal.WithLabelValues(e.Type, "applied").Inc()
	return nil
}

func validatePassenger(p model.Passenger) error {
	fe := auth.FieldErrors{}
	if strings.TrimSpace(p.FirstName) == "" {
		fe["first_name"] = "First name is required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		fe["last_name"] = "Last name is required"
	}
	auth.ValidateEmail(fe, p.Email)
	if strings.TrimSpace(p.Phone) == "" {
		fe["phone"] = "Phone is required"
	}
	return fe.Err()
}
