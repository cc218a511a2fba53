package model

import "errors"

// ErrNotFound is returned when a booking, offering or conversation does not
// exist or is not visible to the caller. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule. Handlers map it to 422.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned when an operation needs a signed-in user.
// Handlers map it to 401 with a redirect to the sign-in route.
var ErrUnauthenticated = errors.New("authentication required")

// ErrConflict is returned when the target is in a state that forbids the
// operation (busy conversation, booking no longer pending). Handlers map it to 409.
var ErrConflict = errors.New("conflict")

// ErrUpstream is returned when an external collaborator (auth service,
// language model, payment provider) fails. Handlers map it to 502.
var ErrUpstream = errors.New("upstream service error")

// ErrUnavailable is returned when the booking store cannot be reached.
// Handlers map it to 503; it is never turned into an empty result.
var ErrUnavailable = errors.New("service unavailable")
