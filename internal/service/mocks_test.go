package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/llm"
	"github.com/tripmate/travel-platform/internal/model"
)

// fakeRepo is an in-memory repo.BookingRepo. Setting failWith makes every
// call fail with that error.
type fakeRepo struct {
	mu       sync.Mutex
	bookings []model.Booking
	failWith error
}

func (f *fakeRepo) Create(_ context.Context, b model.Booking) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.Booking{}, f.failWith
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	f.bookings = append(f.bookings, b)
	return b, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Booking{}
	for i := len(f.bookings) - 1; i >= 0; i-- {
		if f.bookings[i].UserID == userID {
			out = append(out, f.bookings[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, userID, id string) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.Booking{}, f.failWith
	}
	for _, b := range f.bookings {
		if b.ID == id && b.UserID == userID {
			return b, nil
		}
	}
	return model.Booking{}, model.ErrNotFound
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.Booking{}, f.failWith
	}
	for i, b := range f.bookings {
		if b.ID != id {
			continue
		}
		if b.Status != from {
			return model.Booking{}, model.ErrConflict
		}
		f.bookings[i].Status = to
		return f.bookings[i], nil
	}
	return model.Booking{}, model.ErrNotFound
}

func (f *fakeRepo) statusOf(id string) model.BookingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			return b.Status
		}
	}
	return ""
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBookingEvent(_ context.Context, e model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// mockLLM is a hand-written llm.Client.
type mockLLM struct {
	complete func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (m *mockLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return m.complete(ctx, req)
}

func (m *mockLLM) Name() string { return "mock" }

// mockGateway is a hand-written service.PaymentGateway.
type mockGateway struct {
	createSession func(ctx context.Context, req model.PaymentSessionRequest) (model.PaymentSession, error)
	calls         int
}

func (m *mockGateway) CreateSession(ctx context.Context, req model.PaymentSessionRequest) (model.PaymentSession, error) {
	m.calls++
	return m.createSession(ctx, req)
}

// mockProvider is a hand-written auth.Provider for profile updates.
type mockProvider struct {
	updateUser func(ctx context.Context, token string, u model.UserUpdate) (model.User, error)
	calls      int
}

func (m *mockProvider) SignIn(context.Context, string, string) (auth.Grant, error) {
	return auth.Grant{}, errors.New("unexpected SignIn")
}

func (m *mockProvider) SignUp(context.Context, string, string, string) (auth.Grant, error) {
	return auth.Grant{}, errors.New("unexpected SignUp")
}

func (m *mockProvider) SignOut(context.Context, string) error {
	return errors.New("unexpected SignOut")
}

func (m *mockProvider) UpdateUser(ctx context.Context, token string, u model.UserUpdate) (model.User, error) {
	m.calls++
	return m.updateUser(ctx, token, u)
}

func sessionFor(userID, fullName string) *auth.Session {
	sess := auth.NewSession()
	sess.Resolve("sess-"+userID, model.User{
		ID:       userID,
		Email:    userID + "@example.com",
		Metadata: model.UserMetadata{FullName: fullName},
	}, "token-"+userID, time.Now().Add(time.Hour))
	return sess
}
