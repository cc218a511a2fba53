// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/gotrue"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/route"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx response. Redirect names the
// client route to navigate to instead of showing the error.
type errorResponse struct {
	Error    string            `json:"error"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Reply    string            `json:"reply,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// errorFor maps a service error onto a status code and response body.
func errorFor(err error) (int, errorResponse) {
	var fields auth.FieldErrors
	var authErr *gotrue.Error
	switch {
	case errors.As(err, &fields):
		return http.StatusUnprocessableEntity, errorResponse{Error: "invalid input", Fields: fields}
	case errors.As(err, &authErr) && authErr.UserMessage() != "":
		if errors.Is(authErr, model.ErrUnauthenticated) {
			return http.StatusUnauthorized, errorResponse{Error: authErr.UserMessage(), Redirect: route.SignIn}
		}
		if errors.Is(authErr, model.ErrValidation) {
			return http.StatusUnprocessableEntity, errorResponse{Error: authErr.UserMessage()}
		}
		return http.StatusBadGateway, errorResponse{Error: authErr.UserMessage()}
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: model.ErrUnauthenticated.Error(), Redirect: route.SignIn}
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: model.ErrNotFound.Error()}
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity, errorResponse{Error: model.ErrValidation.Error()}
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, errorResponse{Error: model.ErrConflict.Error()}
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway, errorResponse{Error: model.ErrUpstream.Error()}
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: model.ErrUnavailable.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

// writeServiceError renders err and logs server-side failures.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	status, body := errorFor(err)
	logError(log, status, err)
	writeJSON(w, status, body)
}

func logError(log *logger.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
		return
	}
	log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
}
