package handler

import (
	"net/http"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/route"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// AuthHandler handles sign-in, sign-up and sign-out.
type AuthHandler struct {
	auth   *auth.Service
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *auth.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: log}
}

// sessionResponse carries the new session and the route to open next.
type sessionResponse struct {
	Session *auth.Session `json:"session"`
	Next    string        `json:"next"`
	Message string        `json:"message,omitempty"`
}

// sessionView is the current session without its tokens.
type sessionView struct {
	State auth.State  `json:"state"`
	User  *model.User `json:"user,omitempty"`
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.auth.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Next: route.Home})
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if !sess.SignedIn() {
		writeJSON(w, http.StatusCreated, sessionResponse{
			Session: sess,
			Next:    route.SignIn,
			Message: "Account created. Check your email to confirm your address, then sign in.",
		})
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess, Next: route.Home})
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), auth.SessionFrom(r.Context())); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"next": route.Home})
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	writeJSON(w, http.StatusOK, sessionView{State: sess.State, User: sess.User})
}
