package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// ProfileService updates the signed-in user's account with the auth provider.
type ProfileService struct {
	provider auth.Provider
	logger   *logger.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(provider auth.Provider, log *logger.Logger) *ProfileService {
	return &ProfileService{provider: provider, logger: log.Named("profile")}
}

// Get returns the session's user.
func (s *ProfileService) Get(sess *auth.Session) (model.User, error) {
	if !sess.SignedIn() {
		return model.User{}, fmt.Errorf("service.ProfileService.Get: %w", model.ErrUnauthenticated)
	}
	return *sess.User, nil
}

// UpdateProfile replaces the user's name, phone and address.
func (s *ProfileService) UpdateProfile(ctx context.Context, sess *auth.Session, meta model.UserMetadata) (model.User, error) {
	if !sess.SignedIn() {
		return model.User{}, fmt.Errorf("service.ProfileService.UpdateProfile: %w", model.ErrUnauthenticated)
	}

	meta.FullName = strings.TrimSpace(meta.FullName)
	meta.Phone = strings.TrimSpace(meta.Phone)
	meta.Address = strings.TrimSpace(meta.Address)
	if meta.FullName != "" && len([]rune(meta.FullName)) < auth.MinNameLength {
		return model.User{}, auth.FieldErrors{"full_name": "Name must be at least 2 characters"}
	}

	user, err := s.provider.UpdateUser(ctx, sess.AccessToken, model.UserUpdate{Metadata: &meta})
	if err != nil {
		s.logger.Warn("profile update failed", zap.String("user_id", sess.UserID()), zap.Error(err))
		return model.User{}, fmt.Errorf("service.ProfileService.UpdateProfile: %w", err)
	}
	sess.User = &user
	return user, nil
}

// UpdatePassword changes the user's password after checking the confirmation.
func (s *ProfileService) UpdatePassword(ctx context.Context, sess *auth.Session, password, confirm string) error {
	if !sess.SignedIn() {
		return fmt.Errorf("service.ProfileService.UpdatePassword: %w", model.ErrUnauthenticated)
	}

	fe := auth.FieldErrors{}
	auth.ValidateNewPassword(fe, password, confirm)
	if err := fe.Err(); err != nil {
		return err
	}

	if _, err := s.provider.UpdateUser(ctx, sess.AccessToken, model.UserUpdate{Password: &password}); err != nil {
		s.logger.Warn("password update failed", zap.String("user_id", sess.UserID()), zap.Error(err))
		return fmt.Errorf("service.ProfileService.UpdatePassword: %w", err)
	}
	s.logger.Info("password updated", zap.String("user_id", sess.UserID()))
	return nil
}
