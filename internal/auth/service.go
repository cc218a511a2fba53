package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/pkg/logger"
	"github.com/tripmate/travel-platform/pkg/metrics"
	"github.com/tripmate/travel-platform/pkg/tracing"
)

// EventType identifies a session change.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is broadcast to subscribers after a session change.
type Event struct {
	Type      EventType
	UserID    string
	SessionID string
}

// Listener receives session events. It runs synchronously on the caller's
// goroutine and must not block.
type Listener func(Event)

// Service signs users in and out against the auth Provider and broadcasts
// the result.
type Service struct {
	provider    Provider
	revocations RevocationStore
	log         *logger.Logger
	tracer      trace.Tracer

	mu        sync.RWMutex
	listeners []Listener
}

// NewService creates an auth service.
func NewService(provider Provider, revocations RevocationStore, log *logger.Logger) *Service {
	return &Service{
		provider:    provider,
		revocations: revocations,
		log:         log.Named("auth"),
		tracer:      tracing.Tracer("auth"),
	}
}

// Subscribe registers fn for every future session event.
func (s *Service) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) broadcast(e Event) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(e)
	}
}

// SignIn validates the form and exchanges the credentials for a session.
// Nothing is sent to the provider when validation fails.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "auth.SignIn")
	defer span.End()

	grant, err := s.provider.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	metrics.RecordAuth("signin", err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("sign-in failed", zap.Error(err))
		return nil, fmt.Errorf("auth.Service.SignIn: %w", err)
	}

	sess := sessionFromGrant(grant)
	span.SetAttributes(attribute.String("user.id", grant.User.ID))
	s.log.Info("user signed in", zap.String("user_id", grant.User.ID))
	s.broadcast(Event{Type: EventSignedIn, UserID: grant.User.ID})
	return sess, nil
}

// SignUp validates the form and registers the user. The returned session is
// signed in only when the provider issued tokens straight away.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "auth.SignUp")
	defer span.End()

	grant, err := s.provider.SignUp(ctx, strings.TrimSpace(req.Email), req.Password, strings.TrimSpace(req.FullName))
	metrics.RecordAuth("signup", err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("sign-up failed", zap.Error(err))
		return nil, fmt.Errorf("auth.Service.SignUp: %w", err)
	}

	if grant.AccessToken == "" {
		s.log.Info("user signed up, awaiting confirmation", zap.String("user_id", grant.User.ID))
		sess := SignedOut()
		user := grant.User
		sess.User = &user
		return sess, nil
	}

	sess := sessionFromGrant(grant)
	s.log.Info("user signed up", zap.String("user_id", grant.User.ID))
	s.broadcast(Event{Type: EventSignedIn, UserID: grant.User.ID})
	return sess, nil
}

// SignOut ends sess. The session is revoked locally and subscribers are told
// even when the provider call fails; that failure is still returned.
func (s *Service) SignOut(ctx context.Context, sess *Session) error {
	if !sess.SignedIn() {
		return fmt.Errorf("auth.Service.SignOut: %w", model.ErrUnauthenticated)
	}

	ctx, span := s.tracer.Start(ctx, "auth.SignOut")
	defer span.End()

	userID, sessionID := sess.UserID(), sess.ID
	providerErr := s.provider.SignOut(ctx, sess.AccessToken)
	metrics.RecordAuth("signout", providerErr)
	if providerErr != nil {
		span.SetStatus(codes.Error, providerErr.Error())
		s.log.Warn("provider sign-out failed", zap.String("user_id", userID), zap.Error(providerErr))
	}

	if sessionID != "" {
		if err := s.revocations.Revoke(ctx, sessionID, sess.ExpiresAt); err != nil {
			s.log.Error("failed to revoke session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	sess.End()
	s.log.Info("user signed out", zap.String("user_id", userID))
	s.broadcast(Event{Type: EventSignedOut, UserID: userID, SessionID: sessionID})

	if providerErr != nil {
		return fmt.Errorf("auth.Service.SignOut: %w", providerErr)
	}
	return nil
}

func sessionFromGrant(g Grant) *Session {
	sess := NewSession()
	sess.Resolve("", g.User, g.AccessToken, g.ExpiresAt)
	sess.RefreshToken = g.RefreshToken
	return sess
}
