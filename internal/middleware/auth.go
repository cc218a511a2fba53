// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/route"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// Claims are the access-token claims issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	Email        string             `json:"email"`
	UserMetadata model.UserMetadata `json:"user_metadata"`
	SessionID    string             `json:"session_id"`
}

// Session resolves the request's auth.Session from its bearer token and
// stores it in the request context. Requests without a valid, unrevoked
// token carry a signed-out session; use RequireSession to reject them.
func Session(jwtSecret string, revocations auth.RevocationStore, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("session")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := auth.NewSession()
			serve := func() {
				if sess.State == auth.StateLoading {
					sess.End()
				}
				noteSession(r.Context(), sess)
				next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				serve()
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !token.Valid || claims.Subject == "" {
				log.Debug("rejected access token", zap.Error(err))
				serve()
				return
			}

			id := claims.SessionID
			if id == "" {
				sum := sha256.Sum256([]byte(tokenString))
				id = hex.EncodeToString(sum[:])
			}

			revoked, err := revocations.IsRevoked(r.Context(), id)
			if err != nil {
				log.Warn("revocation lookup failed", zap.Error(err))
			}
			if err != nil || revoked {
				serve()
				return
			}

			sess.Resolve(id, model.User{
				ID:       claims.Subject,
				Email:    claims.Email,
				Metadata: claims.UserMetadata,
			}, tokenString, claims.ExpiresAt.Time)
			serve()
		})
	}
}

// RequireSession answers 401 with a redirect to sign-in unless the request
// carries a signed-in session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.SessionFrom(r.Context()).SignedIn() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":    "sign in required",
				"redirect": route.SignIn,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
