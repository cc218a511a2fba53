package auth

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tripmate/travel-platform/internal/model"
)

// MinNameLength and MinPasswordLength are the sign-up form minimums.
const (
	MinNameLength     = 2
	MinPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// FieldErrors maps form fields to a user-facing message. It unwraps to
// model.ErrValidation.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return model.ErrValidation }

// Err returns fe as an error, or nil when it is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// SignInRequest is the sign-in form.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the sign-in form.
func (r SignInRequest) Validate() error {
	fe := FieldErrors{}
	ValidateEmail(fe, r.Email)
	if r.Password == "" {
		fe["password"] = "Password is required"
	}
	return fe.Err()
}

// SignUpRequest is the sign-up form.
type SignUpRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate checks the sign-up form.
func (r SignUpRequest) Validate() error {
	fe := FieldErrors{}
	switch name := strings.TrimSpace(r.FullName); {
	case name == "":
		fe["full_name"] = "Name is required"
	case len([]rune(name)) < MinNameLength:
		fe["full_name"] = "Name must be at least 2 characters"
	}
	ValidateEmail(fe, r.Email)
	ValidateNewPassword(fe, r.Password, r.ConfirmPassword)
	return fe.Err()
}

// ValidateNewPassword records password and confirmation problems in fe.
func ValidateNewPassword(fe FieldErrors, password, confirm string) {
	switch {
	case password == "":
		fe["password"] = "Password is required"
	case len(password) < MinPasswordLength:
		fe["password"] = "Password must be at least 8 characters"
	}
	switch {
	case confirm == "":
		fe["confirm_password"] = "Please confirm your password"
	case confirm != password:
		fe["confirm_password"] = "Passwords do not match"
	}
}

// ValidateEmail records a missing or malformed email in fe.
func ValidateEmail(fe FieldErrors, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fe["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fe["email"] = "Invalid email address"
	}
}
