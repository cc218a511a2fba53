package auth

import (
	"context"
	"time"

	"github.com/tripmate/travel-platform/internal/model"
)

// Grant is what the auth service hands back after a successful sign-in or
// sign-up. AccessToken is empty when sign-up still needs email confirmation.
type Grant struct {
	User         model.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider is the external auth service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Grant, error)
	SignUp(ctx context.Context, email, password, fullName string) (Grant, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateUser(ctx context.Context, accessToken string, update model.UserUpdate) (model.User, error)
}
