// Package repo holds the Postgres access code for bookings. It maps rows to
// model types and leaves business rules to the service layer.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripmate/travel-platform/internal/model"
)

// db is satisfied by *pgxpool.Pool and pgx.Tx, so tests can run each case
// inside a transaction that is rolled back afterwards.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookingRepo persists bookings.
type BookingRepo interface {
	// Create inserts a booking and returns it with the generated id and created_at.
	Create(ctx context.Context, b model.Booking) (model.Booking, error)

	// ListByUser returns a user's bookings, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)

	// GetByID returns one booking owned by userID.
	// Returns model.ErrNotFound when it does not exist or belongs to someone else.
	GetByID(ctx context.Context, userID, id string) (model.Booking, error)

	// UpdateStatus moves a booking from one status to another. Returns
	// model.ErrConflict when the booking exists but is not in status from.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (model.Booking, error)
}

type pgBookingRepo struct {
	db db
}

// NewBookingRepo returns a BookingRepo backed by db.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `id::text, user_id, booking_type, item_id, booking_date, start_date, end_date,
		total_price::float8, status, details, created_at`

func (r *pgBookingRepo) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
	const q = `
		INSERT INTO bookings (user_id, booking_type, item_id, booking_date, start_date, end_date, total_price, status, details)
		VALUES (@user_id, @booking_type, @item_id, @booking_date, @start_date, @end_date, @total_price, @status, @details)
		RETURNING ` + bookingColumns

	details := b.Details
	if details == nil {
		details = map[string]any{}
	}
	args := pgx.NamedArgs{
		"user_id":      b.UserID,
		"booking_type": string(b.BookingType),
		"item_id":      b.ItemID,
		"booking_date": b.BookingDate,
		"start_date":   b.StartDate,
		"end_date":     b.EndDate,
		"total_price":  b.TotalPrice,
		"status":       string(b.Status),
		"details":      details,
	}

	got, err := scanBooking(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return model.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", err)
	}
	return got, nil
}

func (r *pgBookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = @user_id
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BookingRepo.ListByUser: scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByUser: rows: %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepo) GetByID(ctx context.Context, userID, id string) (model.Booking, error) {
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = @id::uuid AND user_id = @user_id`

	got, err := scanBooking(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return model.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	return got, nil
}

func (r *pgBookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (model.Booking, error) {
	q := `
		UPDATE bookings
		SET status = @to
		WHERE id = @id::uuid AND status = @from
		RETURNING ` + bookingColumns

	args := pgx.NamedArgs{"id": id, "from": string(from), "to": string(to)}
	got, err := scanBooking(r.db.QueryRow(ctx, q, args))
	if err == nil {
		return got, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: %w", err)
	}

	var exists bool
	const check = `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = @id::uuid)`
	if err := r.db.QueryRow(ctx, check, pgx.NamedArgs{"id": id}).Scan(&exists); err != nil {
		return model.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: check: %w", err)
	}
	if exists {
		return model.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: booking %s is not %s: %w", id, from, model.ErrConflict)
	}
	return model.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: %w", model.ErrNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (model.Booking, error) {
	var (
		b           model.Booking
		bookingType string
		status      string
		start, end  pgtype.Timestamptz
	)

	err := s.Scan(&b.ID, &b.UserID, &bookingType, &b.ItemID, &b.BookingDate, &start, &end,
		&b.TotalPrice, &status, &b.Details, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Booking{}, model.ErrNotFound
		}
		return model.Booking{}, err
	}

	b.BookingType = model.BookingType(bookingType)
	b.Status = model.BookingStatus(status)
	if start.Valid {
		t := start.Time
		b.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		b.EndDate = &t
	}
	if b.Details == nil {
		b.Details = map[string]any{}
	}
	return b, nil
}
