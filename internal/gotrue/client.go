// Package gotrue is a client for a GoTrue-compatible auth REST API, the
// service that owns user accounts and issues access tokens.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
)

// Client calls the auth service. It implements auth.Provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the auth service at baseURL. apiKey is sent as the
// apikey header on every request.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ auth.Provider = (*Client)(nil)

// Error is a non-2xx response from the auth service. Client errors (4xx)
// unwrap to model.ErrValidation, everything else to model.ErrUpstream.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth service: %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return model.ErrUnauthenticated
	}
	if e.Status >= 400 && e.Status < 500 {
		return model.ErrValidation
	}
	return model.ErrUpstream
}

// UserMessage is the message the auth service meant for the user.
func (e *Error) UserMessage() string { return e.Message }

type userResponse struct {
	ID       string             `json:"id"`
	Email    string             `json:"email"`
	Metadata model.UserMetadata `json:"user_metadata"`
}

func (u userResponse) toModel() model.User {
	return model.User{ID: u.ID, Email: u.Email, Metadata: u.Metadata}
}

type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
	// sign-up without auto-confirm returns the bare user
	userResponse
}

func (c *Client) grant(s sessionResponse) auth.Grant {
	user := s.userResponse
	if s.User != nil {
		user = *s.User
	}
	g := auth.Grant{
		User:         user.toModel(),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		g.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		g.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return g
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Grant, error) {
	body := map[string]string{"email": email, "password": password}
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return auth.Grant{}, fmt.Errorf("gotrue.Client.SignIn: %w", err)
	}
	return c.grant(resp), nil
}

// SignUp registers a user with full_name in the user metadata.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (auth.Grant, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     model.UserMetadata{FullName: fullName},
	}
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &resp); err != nil {
		return auth.Grant{}, fmt.Errorf("gotrue.Client.SignUp: %w", err)
	}
	return c.grant(resp), nil
}

// SignOut invalidates the refresh tokens behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("gotrue.Client.SignOut: %w", err)
	}
	return nil
}

// UpdateUser changes the user's metadata and/or password.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, update model.UserUpdate) (model.User, error) {
	body := map[string]any{}
	if update.Metadata != nil {
		body["data"] = update.Metadata
	}
	if update.Password != nil {
		body["password"] = *update.Password
	}
	var resp userResponse
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, body, &resp); err != nil {
		return model.User{}, fmt.Errorf("gotrue.Client.UpdateUser: %w", err)
	}
	return resp.toModel(), nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", model.ErrUpstream, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &payload)

	e := &Error{Status: resp.StatusCode, Code: payload.ErrorCode}
	if e.Code == "" {
		e.Code = payload.Error
	}
	for _, m := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
