package handler_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/catalog"
	"github.com/tripmate/travel-platform/internal/handler"
	"github.com/tripmate/travel-platform/internal/llm"
	"github.com/tripmate/travel-platform/internal/middleware"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/payment"
	"github.com/tripmate/travel-platform/internal/service"
	"github.com/tripmate/travel-platform/pkg/logger"
)

const (
	jwtSecret     = "handler-test-secret"
	webhookSecret = "whsec_test"
)

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

func (f *fakeRepo) add(b model.Booking) model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	f.bookings = append(f.bookings, b)
	return b
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

type mockProvider struct {
	signIn     func(ctx context.Context, email, password string) (auth.Grant, error)
	signUp     func(ctx context.Context, email, password, fullName string) (auth.Grant, error)
	signOut    func(ctx context.Context, token string) error
	updateUser func(ctx context.Context, token string, u model.UserUpdate) (model.User, error)
	calls      int
}

func (m *mockProvider) SignIn(ctx context.Context, email, password string) (auth.Grant, error) {
	m.calls++
	if m.signIn == nil {
		return auth.Grant{}, errors.New("unexpected SignIn")
	}
	return m.signIn(ctx, email, password)
}

func (m *mockProvider) SignUp(ctx context.Context, email, password, fullName string) (auth.Grant, error) {
	m.calls++
	if m.signUp == nil {
		return auth.Grant{}, errors.New("unexpected SignUp")
	}
	return m.signUp(ctx, email, password, fullName)
}

func (m *mockProvider) SignOut(ctx context.Context, token string) error {
	m.calls++
	if m.signOut == nil {
		return nil
	}
	return m.signOut(ctx, token)
}

func (m *mockProvider) UpdateUser(ctx context.Context, token string, u model.UserUpdate) (model.User, error) {
	m.calls++
	if m.updateUser == nil {
		return model.User{}, errors.New("unexpected UpdateUser")
	}
	return m.updateUser(ctx, token, u)
}

type mockLLM struct {
	complete func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (m *mockLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.complete == nil {
		last := req.Messages[len(req.Messages)-1]
		return &llm.CompletionResponse{Content: "re: " + last.Content, Model: "mock-1"}, nil
	}
	return m.complete(ctx, req)
}

func (m *mockLLM) Name() string { return "mock" }

type mockGateway struct {
	createSession func(ctx context.Context, req model.PaymentSessionRequest) (model.PaymentSession, error)
}

func (m *mockGateway) CreateSession(ctx context.Context, req model.PaymentSessionRequest) (model.PaymentSession, error) {
	if m.createSession == nil {
		return model.PaymentSession{ID: "cs_test", URL: "https://pay.example.com/cs_test"}, nil
	}
	return m.createSession(ctx, req)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// testAPI is the full router wired to in-memory collaborators.
type testAPI struct {
	handler  http.Handler
	repo     *fakeRepo
	provider *mockProvider
	llm      *mockLLM
	gateway  *mockGateway
	verifier *payment.Verifier
	pinger   *stubPinger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.Nop()
	cat, err := catalog.Load()
	require.NoError(t, err)

	api := &testAPI{
		repo:     &fakeRepo{},
		provider: &mockProvider{},
		llm:      &mockLLM{},
		gateway:  &mockGateway{},
		verifier: payment.NewVerifier(webhookSecret, 5*time.Minute),
		pinger:   &stubPinger{},
	}

	revocations := auth.NewMemoryRevocations()
	authSvc := auth.NewService(api.provider, revocations, log)
	bookings := service.NewBookingService(api.repo, service.NopPublisher{}, log)
	assistant := service.NewAssistantService(api.llm, service.AssistantConfig{Timeout: time.Second}, log)
	authSvc.Subscribe(assistant.OnAuthEvent)
	checkout := service.NewCheckoutService(cat, bookings, api.gateway, service.CheckoutConfig{Currency: "usd", Timeout: time.Second}, log)
	profile := service.NewProfileService(api.provider, log)

	api.handler = handler.NewRouter(handler.RouterConfig{
		JWTSecret:             jwtSecret,
		Revocations:           revocations,
		CORSOrigins:           []string{"http://localhost:5173"},
		RateLimitRequests:     1000,
		RateLimitWindow:       time.Minute,
		AuthRateLimitRequests: 1000,
		AssistantRateLimit:    1000,
		Health:                handler.NewHealthHandler(api.pinger, nil),
		Auth:                  handler.NewAuthHandler(authSvc, log),
		Catalog:               handler.NewCatalogHandler(cat),
		Checkout:              handler.NewCheckoutHandler(checkout, log),
		Bookings:              handler.NewBookingHandler(bookings, log),
		Profile:               handler.NewProfileHandler(profile, log),
		Assistant:             handler.NewAssistantHandler(assistant, log),
		Payments:              handler.NewPaymentHandler(api.verifier, checkout, log),
	}, log)
	return api
}

// tokenFor signs an access token for userID the way the auth service does.
func tokenFor(t *testing.T, userID, fullName string) string {
	t.Helper()
	return tokenForSession(t, userID, fullName, "sess-"+userID)
}

func tokenForSession(t *testing.T, userID, fullName, sessionID string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:        userID + "@example.com",
		UserMetadata: model.UserMetadata{FullName: fullName},
		SessionID:    sessionID,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return s
}
