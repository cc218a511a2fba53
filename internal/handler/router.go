package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/middleware"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// RouterConfig holds the handlers and middleware settings for NewRouter.
// Payments and Metrics may be nil.
type RouterConfig struct {
	JWTSecret   string
	Revocations auth.RevocationStore
	CORSOrigins []string

	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	AssistantRateLimit    int

	Health    *HealthHandler
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Checkout  *CheckoutHandler
	Bookings  *BookingHandler
	Profile   *ProfileHandler
	Assistant *AssistantHandler
	Payments  *PaymentHandler
	Metrics   http.Handler
}

// NewRouter builds the API's HTTP surface.
func NewRouter(cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Set before any Route call so sub-routers inherit it.
	r.NotFound(NotFound)

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWTSecret, cfg.Revocations, log))

		if cfg.Payments != nil {
			r.Post("/payments/webhook", cfg.Payments.Webhook)
		}

		// Credential endpoints are limited per IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimitRequests, cfg.RateLimitWindow))
			r.Post("/auth/signin", cfg.Auth.SignIn)
			r.Post("/auth/signup", cfg.Auth.SignUp)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/auth/session", cfg.Auth.Session)
			r.Get("/routes/resolve", ResolveRoute)
			r.Get("/bookings", cfg.Bookings.Redirect)
			r.Get("/assistant/prompts", cfg.Assistant.Prompts)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/flights", cfg.Catalog.Flights)
				r.Get("/trains", cfg.Catalog.Trains)
				r.Get("/buses", cfg.Catalog.Buses)
				r.Get("/cars", cfg.Catalog.Cars)
				r.Get("/places", cfg.Catalog.Places)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession)

				r.Post("/auth/signout", cfg.Auth.SignOut)

				r.Get("/checkout/quote", cfg.Checkout.Quote)
				r.Post("/checkout", cfg.Checkout.Submit)

				r.Get("/bookings/{id}", cfg.Bookings.Get)

				r.Route("/profile", func(r chi.Router) {
					r.Get("/", cfg.Profile.Get)
					r.Put("/", cfg.Profile.Update)
					r.Put("/password", cfg.Profile.UpdatePassword)
					r.Get("/bookings", cfg.Bookings.List)
				})

				r.Route("/assistant/conversations", func(r chi.Router) {
					r.Post("/", cfg.Assistant.Create)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", cfg.Assistant.Get)
						r.Delete("/", cfg.Assistant.Delete)
						r.With(middleware.UserRateLimit(cfg.AssistantRateLimit, cfg.RateLimitWindow)).
							Post("/messages", cfg.Assistant.Send)
					})
				})
			})
		})
	})

	return r
}
