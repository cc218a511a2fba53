package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tripmate/travel-platform/internal/model"
)

// MaxMessageLength bounds one assistant message, in characters.
const MaxMessageLength = 4000

// ValidateMessageContent validates an assistant message.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty: %w", model.ErrValidation)
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("content must be valid UTF-8: %w", model.ErrValidation)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return fmt.Errorf("content exceeds %d characters: %w", MaxMessageLength, model.ErrValidation)
	}
	return nil
}

// ValidateConversationID validates a conversation ID. Unknown formats are
// reported as not found so ids cannot be probed.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", model.ErrNotFound)
	}
	return nil
}

// ValidateBookingID validates a booking ID.
func ValidateBookingID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid booking ID format: %w", model.ErrNotFound)
	}
	return nil
}

// ValidateBookingType parses an optional booking type filter. An empty
// value means every type.
func ValidateBookingType(s string) (model.BookingType, error) {
	if s == "" {
		return "", nil
	}
	t := model.BookingType(strings.ToLower(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown booking type %q: %w", s, model.ErrValidation)
	}
	return t, nil
}
