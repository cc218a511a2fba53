package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/repo"
	"github.com/tripmate/travel-platform/testutil"
)

func newTestRepo(t *testing.T) repo.BookingRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return repo.NewBookingRepo(tx)
}

func bookingFixture(userID string) model.Booking {
	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	return model.Booking{
		UserID:      userID,
		BookingType: model.BookingTypeFlight,
		ItemID:      "f1",
		BookingDate: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		StartDate:   &start,
		TotalPrice:  299,
		Status:      model.BookingStatusPending,
		Details:     map[string]any{"airline": "Blue Sky Airlines"},
	}
}

func TestBookingRepo_Create(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	got, err := r.Create(ctx, bookingFixture("user-1"))

	require.NoError(t, err)
	_, err = uuid.Parse(got.ID)
	assert.NoError(t, err, "id is a generated uuid")
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, model.BookingTypeFlight, got.BookingType)
	assert.Equal(t, 299.0, got.TotalPrice)
	assert.Equal(t, model.BookingStatusPending, got.Status)
	assert.Equal(t, "Blue Sky Airlines", got.Details["airline"])
	require.NotNil(t, got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestBookingRepo_Create_rejectsUnknownType(t *testing.T) {
	r := newTestRepo(t)

	b := bookingFixture("user-1")
	b.BookingType = "boat"
	_, err := r.Create(context.Background(), b)

	assert.Error(t, err)
}

func TestBookingRepo_ListByUser(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, bookingFixture("user-1"))
	require.NoError(t, err)
	place := bookingFixture("user-1")
	place.BookingType = model.BookingTypePlace
	place.TotalPrice = 0
	place.Status = model.BookingStatusConfirmed
	_, err = r.Create(ctx, place)
	require.NoError(t, err)
	_, err = r.Create(ctx, bookingFixture("user-2"))
	require.NoError(t, err)

	got, err := r.ListByUser(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, b := range got {
		assert.Equal(t, "user-1", b.UserID)
	}
	assert.False(t, got[0].CreatedAt.Before(got[1].CreatedAt), "newest first")
}

func TestBookingRepo_ListByUser_emptyIsNotNil(t *testing.T) {
	r := newTestRepo(t)

	got, err := r.ListByUser(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBookingRepo_GetByID_scopedToOwner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, bookingFixture("user-1"))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = r.GetByID(ctx, "user-2", created.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = r.GetByID(ctx, "user-1", uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBookingRepo_UpdateStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, bookingFixture("user-1"))
	require.NoError(t, err)

	got, err := r.UpdateStatus(ctx, created.ID, model.BookingStatusPending, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status)

	_, err = r.UpdateStatus(ctx, created.ID, model.BookingStatusPending, model.BookingStatusCancelled)
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = r.UpdateStatus(ctx, uuid.NewString(), model.BookingStatusPending, model.BookingStatusCancelled)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
