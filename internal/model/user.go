package model

import "strings"

// UserMetadata is the free-form profile data kept by the auth service.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// User is the identity supplied by the external auth service.
type User struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Metadata UserMetadata `json:"user_metadata"`
}

// FirstName returns the first word of the full name, if any.
func (u User) FirstName() string {
	parts := strings.Fields(u.Metadata.FullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// LastName returns the second word of the full name, if any.
func (u User) LastName() string {
	parts := strings.Fields(u.Metadata.FullName)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// UserUpdate carries a profile or password change for the auth service.
// Nil fields are left untouched.
type UserUpdate struct {
	Metadata *UserMetadata
	Password *string
}
