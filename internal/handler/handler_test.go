package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/gotrue"
	"github.com/tripmate/travel-platform/internal/llm"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/payment"
	"github.com/tripmate/travel-platform/internal/service"
)

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error    string            `json:"error"`
	Redirect string            `json:"redirect"`
	Fields   map[string]string `json:"fields"`
	Reply    string            `json:"reply"`
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/ready", "", nil).Code)

	api.pinger.err = errors.New("connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, api.do(t, http.MethodGet, "/ready", "", nil).Code)
}

func TestNotFound_redirectsHome(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/nowhere", "/api/v1/nowhere"} {
		rec := api.do(t, http.MethodGet, path, "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "/", decode[errorBody](t, rec).Redirect, path)
	}
}

func TestResolveRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/routes/resolve?path=/bookings", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "/profile/bookings", got["path"])
	assert.Equal(t, true, got["found"])
}

func TestGuardedRoutes_requireSignIn(t *testing.T) {
	api := newTestAPI(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/profile/bookings"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodPost, "/api/v1/assistant/conversations"},
		{http.MethodPost, "/api/v1/auth/signout"},
	}
	for _, p := range paths {
		rec := api.do(t, p.method, p.path, "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)
		assert.Equal(t, "/signin", decode[errorBody](t, rec).Redirect, p.path)
	}
}

func TestSignIn_validationSkipsProvider(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/signin", "", auth.SignInRequest{Email: "not-an-email"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "Invalid email address", body.Fields["email"])
	assert.Equal(t, "Password is required", body.Fields["password"])
	assert.Zero(t, api.provider.calls)
}

func TestSignIn_success(t *testing.T) {
	api := newTestAPI(t)
	api.provider.signIn = func(_ context.Context, email, password string) (auth.Grant, error) {
		assert.Equal(t, "ada@example.com", email)
		return auth.Grant{
			User:        model.User{ID: "u1", Email: email},
			AccessToken: "access",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, nil
	}

	rec := api.do(t, http.MethodPost, "/api/v1/auth/signin", "", auth.SignInRequest{Email: "ada@example.com", Password: "secret-password"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "/", body["next"])
	sess := body["session"].(map[string]any)
	assert.Equal(t, "signed_in", sess["state"])
	assert.Equal(t, "access", sess["access_token"])
}

func TestSignIn_providerMessageSurfaced(t *testing.T) {
	api := newTestAPI(t)
	api.provider.signIn = func(context.Context, string, string) (auth.Grant, error) {
		return auth.Grant{}, &gotrue.Error{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}

	rec := api.do(t, http.MethodPost, "/api/v1/auth/signin", "", auth.SignInRequest{Email: "ada@example.com", Password: "wrong-password"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Invalid login credentials", decode[errorBody](t, rec).Error)
}

func TestSignUp_passwordMismatchSkipsProvider(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", auth.SignUpRequest{
		FullName: "Ada Lovelace", Email: "ada@example.com", Password: "password-1", ConfirmPassword: "password-2",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Passwords do not match", decode[errorBody](t, rec).Fields["confirm_password"])
	assert.Zero(t, api.provider.calls)
}

func TestSignUp_awaitingConfirmationGoesToSignIn(t *testing.T) {
	api := newTestAPI(t)
	api.provider.signUp = func(_ context.Context, email, _, name string) (auth.Grant, error) {
		return auth.Grant{User: model.User{ID: "u9", Email: email, Metadata: model.UserMetadata{FullName: name}}}, nil
	}

	rec := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", auth.SignUpRequest{
		FullName: "Ada Lovelace", Email: "ada@example.com", Password: "password-1", ConfirmPassword: "password-1",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/signin", decode[map[string]any](t, rec)["next"])
}

func TestSignOut_revokesTokenAndEndsConversations(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, "u1", "Ada")

	created := api.do(t, http.MethodPost, "/api/v1/assistant/conversations", token, nil)
	require.Equal(t, http.StatusCreated, created.Code)
	location := created.Header().Get("Location")

	rec := api.do(t, http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", decode[map[string]any](t, rec)["next"])

	rec = api.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked token is signed out")

	fresh := tokenForSession(t, "u1", "Ada", "sess-after")
	rec = api.do(t, http.MethodGet, location, fresh, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "conversation ended on sign-out")
}

func TestSession_reportsState(t *testing.T) {
	api := newTestAPI(t)

	anon := decode[map[string]any](t, api.do(t, http.MethodGet, "/api/v1/auth/session", "", nil))
	assert.Equal(t, "signed_out", anon["state"])

	rec := api.do(t, http.MethodGet, "/api/v1/auth/session", tokenFor(t, "u1", "Ada"), nil)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "signed_in", body["state"])
	assert.NotContains(t, rec.Body.String(), "access_token")
}

func TestCatalog_search(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/catalog/flights?direct=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	flights := decode[struct {
		Results []model.Flight `json:"results"`
		Total   int            `json:"total"`
	}](t, rec)
	assert.Equal(t, len(flights.Results), flights.Total)
	for _, f := range flights.Results {
		assert.True(t, f.Direct)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/catalog/places?q=atlantis", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[],"total":0}`, rec.Body.String())
}

func TestBookings_redirectKeepsQuery(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/bookings?type=car", "", nil)

	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/api/v1/profile/bookings?type=car", rec.Header().Get("Location"))
}

func TestBookings_list(t *testing.T) {
	api := newTestAPI(t)
	api.repo.add(model.Booking{UserID: "u1", BookingType: model.BookingTypeFlight, ItemID: "f1", Status: model.BookingStatusConfirmed})
	api.repo.add(model.Booking{UserID: "u1", BookingType: model.BookingTypePlace, ItemID: "p1", Status: model.BookingStatusConfirmed})
	api.repo.add(model.Booking{UserID: "u2", BookingType: model.BookingTypeCar, ItemID: "c1", Status: model.BookingStatusPending})
	token := tokenFor(t, "u1", "Ada")

	all := decode[model.ListBookingsResponse](t, api.do(t, http.MethodGet, "/api/v1/profile/bookings", token, nil))
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, 1, all.ByType[model.BookingTypePlace])

	places := decode[model.ListBookingsResponse](t, api.do(t, http.MethodGet, "/api/v1/profile/bookings?type=place", token, nil))
	require.Len(t, places.Bookings, 1)
	assert.Equal(t, "p1", places.Bookings[0].ItemID)

	rec := api.do(t, http.MethodGet, "/api/v1/profile/bookings?type=boat", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBookings_emptyIsNotAnError(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/profile/bookings", tokenFor(t, "u1", ""), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[model.ListBookingsResponse](t, rec)
	assert.NotNil(t, body.Bookings)
	assert.Zero(t, body.Total)
}

func TestBookings_storeFailureIsObservable(t *testing.T) {
	api := newTestAPI(t)
	api.repo.failWith = errors.New("connection reset")

	rec := api.do(t, http.MethodGet, "/api/v1/profile/bookings", tokenFor(t, "u1", ""), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bookings")
}

func TestBookings_getIsScopedToOwner(t *testing.T) {
	api := newTestAPI(t)
	b := api.repo.add(model.Booking{UserID: "u1", BookingType: model.BookingTypeBus, ItemID: "b1", Status: model.BookingStatusPending})

	rec := api.do(t, http.MethodGet, "/api/v1/bookings/"+b.ID, tokenFor(t, "u1", ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, b.ID, decode[model.Booking](t, rec).ID)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/v1/bookings/"+b.ID, tokenFor(t, "u2", ""), nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", tokenFor(t, "u1", ""), nil).Code)
}

func TestCheckout_quote(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, "u1", "Ada")

	rec := api.do(t, http.MethodGet, "/api/v1/checkout/quote?type=car&id=c1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), q["rental_days"])
	assert.Equal(t, 135.0, q["breakdown"].(map[string]any)["total"])

	rec = api.do(t, http.MethodGet, "/api/v1/checkout/quote?type=flight&id=f99", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/flights", decode[errorBody](t, rec).Redirect)

	rec = api.do(t, http.MethodGet, "/api/v1/checkout/quote?type=car&id=c1&days=two", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_placeIsBookedFree(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/checkout", tokenFor(t, "u1", "Ada"), model.CheckoutRequest{
		Type:      model.BookingTypePlace,
		ItemID:    "p1",
		Passenger: model.Passenger{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[model.CheckoutResult](t, rec)
	assert.Equal(t, "/profile/bookings", res.Next)
	assert.Equal(t, model.BookingStatusConfirmed, res.Booking.Status)
	assert.Empty(t, res.PaymentURL)
}

func TestCheckout_paidThenWebhookConfirms(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/checkout", tokenFor(t, "u1", "Ada"), model.CheckoutRequest{
		Type:      model.BookingTypeFlight,
		ItemID:    "f1",
		Passenger: model.Passenger{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[model.CheckoutResult](t, rec)
	assert.Equal(t, "/payment-success", res.Next)
	assert.Equal(t, "https://pay.example.com/cs_test", res.PaymentURL)
	assert.Equal(t, model.BookingStatusPending, api.repo.statusOf(res.Booking.ID))

	body, err := json.Marshal(payment.Event{Type: payment.EventSessionCompleted, SessionID: "cs_test", BookingID: res.Booking.ID})
	require.NoError(t, err)

	forged := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	forged.Header.Set(payment.SignatureHeader, payment.NewVerifier("other", time.Minute).Sign(body, time.Now()))
	out := httptest.NewRecorder()
	api.handler.ServeHTTP(out, forged)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
	assert.Equal(t, model.BookingStatusPending, api.repo.statusOf(res.Booking.ID))

	signed := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	signed.Header.Set(payment.SignatureHeader, api.verifier.Sign(body, time.Now()))
	out = httptest.NewRecorder()
	api.handler.ServeHTTP(out, signed)
	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, model.BookingStatusConfirmed, api.repo.statusOf(res.Booking.ID))
}

func TestCheckout_paymentFailureIsBadGateway(t *testing.T) {
	api := newTestAPI(t)
	api.gateway.createSession = func(context.Context, model.PaymentSessionRequest) (model.PaymentSession, error) {
		return model.PaymentSession{}, errors.New("timeout")
	}

	rec := api.do(t, http.MethodPost, "/api/v1/checkout", tokenFor(t, "u1", ""), model.CheckoutRequest{
		Type:      model.BookingTypeTrain,
		ItemID:    "t2",
		Passenger: model.Passenger{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555"},
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.Len(t, api.repo.bookings, 1)
	assert.Equal(t, model.BookingStatusCancelled, api.repo.bookings[0].Status)
}

func TestAssistant_conversationFlow(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, "u1", "Ada Lovelace")

	rec := api.do(t, http.MethodPost, "/api/v1/assistant/conversations", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	conv := decode[model.Conversation](t, rec)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, service.WelcomeMessage(&model.User{Metadata: model.UserMetadata{FullName: "Ada Lovelace"}}), conv.Messages[0].Content)
	assert.Equal(t, "/api/v1/assistant/conversations/"+conv.ID, rec.Header().Get("Location"))

	rec = api.do(t, http.MethodPost, "/api/v1/assistant/conversations/"+conv.ID+"/messages", token, model.SendMessageRequest{Content: "Best time to visit Kyoto?"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.SendMessageResponse](t, rec)
	assert.Equal(t, "re: Best time to visit Kyoto?", resp.Reply.Content)
	assert.Len(t, resp.Conversation.Messages, 3)

	rec = api.do(t, http.MethodGet, "/api/v1/assistant/conversations/"+conv.ID, tokenFor(t, "u2", ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other users cannot see it")

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/v1/assistant/conversations/"+conv.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/v1/assistant/conversations/"+conv.ID, token, nil).Code)
}

func TestAssistant_modelFailureReturnsFallback(t *testing.T) {
	api := newTestAPI(t)
	api.llm.complete = func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, errors.New("overloaded")
	}
	token := tokenFor(t, "u1", "")
	conv := decode[model.Conversation](t, api.do(t, http.MethodPost, "/api/v1/assistant/conversations", token, nil))

	rec := api.do(t, http.MethodPost, "/api/v1/assistant/conversations/"+conv.ID+"/messages", token, model.SendMessageRequest{Content: "Hi"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, service.FallbackReply, decode[errorBody](t, rec).Reply)

	after := decode[model.Conversation](t, api.do(t, http.MethodGet, "/api/v1/assistant/conversations/"+conv.ID, token, nil))
	require.Len(t, after.Messages, 2)
	assert.Equal(t, model.RoleUser, after.Messages[1].Role)
}

func TestAssistant_createFromTemplate(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/assistant/conversations", tokenFor(t, "u1", ""), map[string]any{
		"template": "destinationInfo",
		"params":   map[string]any{"destination": "Lisbon"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	conv := decode[model.Conversation](t, rec)
	require.Len(t, conv.Messages, 3)
	assert.True(t, strings.HasPrefix(conv.Messages[1].Content, "Tell me about Lisbon"))

	rec = api.do(t, http.MethodPost, "/api/v1/assistant/conversations", tokenFor(t, "u1", ""), map[string]any{"template": "destinationInfo"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAssistant_rejectsEmptyMessage(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, "u1", "")
	conv := decode[model.Conversation](t, api.do(t, http.MethodPost, "/api/v1/assistant/conversations", token, nil))

	rec := api.do(t, http.MethodPost, "/api/v1/assistant/conversations/"+conv.ID+"/messages", token, model.SendMessageRequest{Content: "  "})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAssistant_prompts(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/assistant/prompts", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		QuickPrompts []model.PromptCategory `json:"quick_prompts"`
		Templates    []map[string]any       `json:"templates"`
	}](t, rec)
	assert.Len(t, body.QuickPrompts, 4)
	assert.Len(t, body.Templates, 6)
}

func TestProfile_updatePasswordMismatch(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPut, "/api/v1/profile/password", tokenFor(t, "u1", ""), map[string]string{
		"password": "new-password", "confirm_password": "different",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Fields, "confirm_password")
	assert.Zero(t, api.provider.calls)
}

func TestProfile_update(t *testing.T) {
	api := newTestAPI(t)
	api.provider.updateUser = func(_ context.Context, _ string, u model.UserUpdate) (model.User, error) {
		return model.User{ID: "u1", Metadata: *u.Metadata}, nil
	}

	rec := api.do(t, http.MethodPut, "/api/v1/profile", tokenFor(t, "u1", "Ada"), model.UserMetadata{FullName: "Ada King", Phone: "555"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada King", decode[model.User](t, rec).Metadata.FullName)
}

func TestProfile_expiredProviderTokenRedirectsToSignIn(t *testing.T) {
	api := newTestAPI(t)
	api.provider.updateUser = func(context.Context, string, model.UserUpdate) (model.User, error) {
		return model.User{}, &gotrue.Error{Status: http.StatusUnauthorized, Message: "JWT expired"}
	}

	rec := api.do(t, http.MethodPut, "/api/v1/profile", tokenFor(t, "u1", "Ada"), model.UserMetadata{FullName: "Ada King"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "/signin", body.Redirect)
	assert.Equal(t, "JWT expired", body.Error)
}
