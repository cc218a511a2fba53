package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/repo"
	"github.com/tripmate/travel-platform/pkg/logger"
	"github.com/tripmate/travel-platform/pkg/metrics"
	"github.com/tripmate/travel-platform/pkg/tracing"
)

// BookingService reads and writes a user's bookings.
type BookingService struct {
	repo   repo.BookingRepo
	events EventPublisher
	logger *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewBookingService creates a booking service. events may be NopPublisher.
func NewBookingService(r repo.BookingRepo, events EventPublisher, log *logger.Logger) *BookingService {
	return &BookingService{
		repo:   r,
		events: events,
		logger: log.Named("bookings"),
		tracer: tracing.Tracer("service"),
		now:    time.Now,
	}
}

// ListForUser returns the user's bookings, newest first, optionally limited
// to one booking type. No bookings is an empty slice; a store failure is
// an error wrapping model.ErrUnavailable.
func (s *BookingService) ListForUser(ctx context.Context, userID string, t model.BookingType) ([]model.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("service.BookingService.ListForUser: %w", model.ErrUnauthenticated)
	}
	if t != "" && !t.Valid() {
		return nil, fmt.Errorf("service.BookingService.ListForUser: unknown booking type %q: %w", t, model.ErrValidation)
	}

	ctx, span := s.tracer.Start(ctx, "bookings.ListForUser")
	defer span.End()

	bookings, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storeError(span, "list", "service.BookingService.ListForUser", err)
	}
	if t != "" {
		bookings = model.FilterBookings(bookings, t)
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	span.SetAttributes(attribute.Int("bookings.count", len(bookings)))
	return bookings, nil
}

// Create stores a booking for the session's user. The user id always comes
// from the session; booking date defaults to now and status to pending.
func (s *BookingService) Create(ctx context.Context, sess *auth.Session, b model.Booking) (model.Booking, error) {
	if !sess.SignedIn() {
		return model.Booking{}, fmt.Errorf("service.BookingService.Create: %w", model.ErrUnauthenticated)
	}

	b.UserID = sess.UserID()
	if b.BookingDate.IsZero() {
		b.BookingDate = s.now().UTC()
	}
	if b.Status == "" {
		b.Status = model.BookingStatusPending
	}
	if err := validateBooking(b); err != nil {
		return model.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "bookings.Create",
		trace.WithAttributes(attribute.String("booking.type", string(b.BookingType))))
	defer span.End()

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return model.Booking{}, s.storeError(span, "create", "service.BookingService.Create", err)
	}

	metrics.BookingsCreatedTotal.WithLabelValues(string(created.BookingType), string(created.Status)).Inc()
	s.logger.Info("booking created",
		zap.String("booking_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("booking_type", string(created.BookingType)),
		zap.String("status", string(created.Status)),
	)
	s.publish(ctx, model.EventTypeBookingCreated, created)
	return created, nil
}

// Get returns one of the user's bookings.
func (s *BookingService) Get(ctx context.Context, userID, id string) (model.Booking, error) {
	if userID == "" {
		return model.Booking{}, fmt.Errorf("service.BookingService.Get: %w", model.ErrUnauthenticated)
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.Booking{}, fmt.Errorf("service.BookingService.Get: %w", model.ErrNotFound)
	}

	ctx, span := s.tracer.Start(ctx, "bookings.Get")
	defer span.End()

	b, err := s.repo.GetByID(ctx, userID, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	if err != nil {
		return model.Booking{}, s.storeError(span, "get", "service.BookingService.Get", err)
	}
	return b, nil
}

// Confirm moves a pending booking to confirmed.
func (s *BookingService) Confirm(ctx context.Context, id string) (model.Booking, error) {
	return s.transition(ctx, id, model.BookingStatusConfirmed, model.EventTypeBookingConfirmed)
}

// Cancel moves a pending booking to cancelled.
func (s *BookingService) Cancel(ctx context.Context, id string) (model.Booking, error) {
	return s.transition(ctx, id, model.BookingStatusCancelled, model.EventTypeBookingCancelled)
}

func (s *BookingService) transition(ctx context.Context, id string, to model.BookingStatus, event model.EventType) (model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Booking{}, fmt.Errorf("service.BookingService.transition: %w", model.ErrNotFound)
	}

	ctx, span := s.tracer.Start(ctx, "bookings.Transition",
		trace.WithAttributes(attribute.String("booking.status", string(to))))
	defer span.End()

	b, err := s.repo.UpdateStatus(ctx, id, model.BookingStatusPending, to)
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrConflict) {
		return model.Booking{}, fmt.Errorf("service.BookingService.transition: %w", err)
	}
	if err != nil {
		return model.Booking{}, s.storeError(span, "update", "service.BookingService.transition", err)
	}

	metrics.BookingStatusTransitionsTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info("booking status changed", zap.String("booking_id", id), zap.String("status", string(to)))
	s.publish(ctx, event, b)
	return b, nil
}

func (s *BookingService) storeError(span trace.Span, op, where string, err error) error {
	metrics.BookingStoreErrorsTotal.WithLabelValues(op).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("booking store failure", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("%s: %w: %w", where, model.ErrUnavailable, err)
}

// publish failures are logged; the booking is already stored.
func (s *BookingService) publish(ctx context.Context, t model.EventType, b model.Booking) {
	e := model.BookingEvent{
		ID:        uuid.NewString(),
		Type:      t,
		BookingID: b.ID,
		UserID:    b.UserID,
		Booking:   b.BookingType,
		Status:    b.Status,
		Total:     b.TotalPrice,
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.PublishBookingEvent(ctx, e); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("booking_id", b.ID),
			zap.String("event", string(t)),
			zap.Error(err),
		)
	}
}

func validateBooking(b model.Booking) error {
	fe := auth.FieldErrors{}
	if !b.BookingType.Valid() {
		fe["booking_type"] = "unknown booking type"
	}
	if !b.Status.Valid() {
		fe["status"] = "unknown status"
	}
	if strings.TrimSpace(b.ItemID) == "" {
		fe["item_id"] = "item is required"
	}
	if b.TotalPrice < 0 {
		fe["total_price"] = "price cannot be negative"
	}
	if b.BookingType == model.BookingTypePlace && b.TotalPrice != 0 {
		fe["total_price"] = "places are free"
	}
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		fe["end_date"] = "end date is before start date"
	}
	return fe.Err()
}
