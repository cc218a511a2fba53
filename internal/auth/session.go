// Package auth owns the signed-in user's session: resolving it, signing in
// and out against the external auth service, and telling the rest of the
// application when it changes.
package auth

import (
	"context"
	"time"

	"github.com/tripmate/travel-platform/internal/model"
)

// State is the lifecycle state of a Session.
type State string

const (
	StateLoading   State = "loading"
	StateSignedIn  State = "signed_in"
	StateSignedOut State = "signed_out"
)

// Session is the per-request view of who is signed in. A new Session starts
// in StateLoading and moves to StateSignedIn or StateSignedOut once the
// credentials on the request have been checked.
type Session struct {
	ID           string      `json:"-"`
	State        State       `json:"state"`
	User         *model.User `json:"user,omitempty"`
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at,omitempty"`
}

// NewSession returns a session whose credentials have not been resolved yet.
func NewSession() *Session {
	return &Session{State: StateLoading}
}

// SignedOut returns a resolved session with no user.
func SignedOut() *Session {
	return &Session{State: StateSignedOut}
}

// Resolve marks the session signed in for user.
func (s *Session) Resolve(id string, user model.User, accessToken string, expiresAt time.Time) {
	s.ID = id
	s.State = StateSignedIn
	s.User = &user
	s.AccessToken = accessToken
	s.ExpiresAt = expiresAt
}

// End clears the user and marks the session signed out.
func (s *Session) End() {
	s.State = StateSignedOut
	s.User = nil
	s.AccessToken = ""
	s.RefreshToken = ""
}

// SignedIn reports whether the session carries a user.
func (s *Session) SignedIn() bool {
	return s != nil && s.State == StateSignedIn && s.User != nil
}

// UserID returns the signed-in user's id, or "".
func (s *Session) UserID() string {
	if !s.SignedIn() {
		return ""
	}
	return s.User.ID
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx. A context without one
// yields a signed-out session, never nil.
func SessionFrom(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s
	}
	return SignedOut()
}
