// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/catalog"
	"github.com/tripmate/travel-platform/internal/config"
	"github.com/tripmate/travel-platform/internal/gotrue"
	"github.com/tripmate/travel-platform/internal/handler"
	"github.com/tripmate/travel-platform/internal/llm"
	natsclient "github.com/tripmate/travel-platform/internal/nats"
	"github.com/tripmate/travel-platform/internal/payment"
	"github.com/tripmate/travel-platform/internal/repo"
	"github.com/tripmate/travel-platform/internal/service"
	"github.com/tripmate/travel-platform/migrations"
	"github.com/tripmate/travel-platform/pkg/logger"
	"github.com/tripmate/travel-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewForEnv(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting API server", zap.String("env", cfg.Env))

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "travel-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Connect to Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if cfg.MigrateOnStart {
		db := stdlib.OpenDBFromPool(pool)
		n, err := migrations.Up(ctx, db)
		db.Close()
		if err != nil {
			return err
		}
		log.Info("database migrations applied", zap.Int("count", n))
	}

	// Booking events go to NATS when configured
	var events service.EventPublisher = service.NopPublisher{}
	var eventsConn handler.ConnectionChecker
	if cfg.NATSURL != "" {
		connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err := natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancelConnect()
		if err != nil {
			return err
		}
		defer natsClient.Close()

		publisher := natsclient.NewEventPublisher(natsClient)
		if err := publisher.EnsureStream(ctx); err != nil {
			return err
		}
		events = publisher
		eventsConn = natsClient
	} else {
		log.Info("NATS_URL not set, booking events disabled")
	}

	// Signed-out sessions are shared through Redis when configured
	var revocations auth.RevocationStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		revocations = auth.NewRedisRevocations(rdb)
	} else {
		log.Info("REDIS_URL not set, session revocations kept in memory")
		revocations = auth.NewMemoryRevocations()
	}

	// Initialize LLM client
	llmClient, err := llm.Select(llm.Provider(cfg.DefaultLLM), map[llm.Provider]string{
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if _, ok := llmClient.(llm.Unconfigured); ok {
		log.Warn("no language model API key set, assistant will answer with its fallback reply")
	} else {
		log.Info("language model selected", zap.String("provider", llmClient.Name()))
	}

	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	// Initialize services
	authProvider := gotrue.New(cfg.AuthURL, cfg.AuthAnonKey)
	authSvc := auth.NewService(authProvider, revocations, log)
	bookingSvc := service.NewBookingService(repo.NewBookingRepo(pool), events, log)
	assistantSvc := service.NewAssistantService(llmClient, service.AssistantConfig{
		Model:   cfg.LLMModel,
		Timeout: cfg.AssistantTimeout,
		IdleTTL: cfg.AssistantIdleTTL,
	}, log)
	authSvc.Subscribe(assistantSvc.OnAuthEvent)
	go assistantSvc.RunSweeper(ctx, time.Minute)
	profileSvc := service.NewProfileService(authProvider, log)

	var payments service.PaymentGateway
	if cfg.PaymentsEnabled() {
		payments = payment.NewClient(cfg.PaymentFunctionURL, cfg.AuthAnonKey, &http.Client{Timeout: cfg.PaymentTimeout})
	} else {
		log.Warn("PAYMENT_FUNCTION_URL not set, paid checkout disabled")
	}
	checkoutSvc := service.NewCheckoutService(cat, bookingSvc, payments, service.CheckoutConfig{
		Currency: cfg.PaymentCurrency,
		Timeout:  cfg.PaymentTimeout,
	}, log)

	var paymentHandler *handler.PaymentHandler
	if cfg.PaymentWebhookSecret != "" {
		verifier := payment.NewVerifier(cfg.PaymentWebhookSecret, cfg.PaymentWebhookTolerance)
		paymentHandler = handler.NewPaymentHandler(verifier, checkoutSvc, log)
	} else {
		log.Warn("PAYMENT_WEBHOOK_SECRET not set, pending bookings will not be confirmed")
	}

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:             cfg.JWTSecret,
		Revocations:           revocations,
		CORSOrigins:           cfg.CORSOrigins,
		RateLimitRequests:     cfg.RateLimitRequests,
		RateLimitWindow:       cfg.RateLimitWindow,
		AuthRateLimitRequests: cfg.AuthRateLimitRequests,
		AssistantRateLimit:    cfg.AssistantRateLimit,
		Health:                handler.NewHealthHandler(pool, eventsConn),
		Auth:                  handler.NewAuthHandler(authSvc, log),
		Catalog:               handler.NewCatalogHandler(cat),
		Checkout:              handler.NewCheckoutHandler(checkoutSvc, log),
		Bookings:              handler.NewBookingHandler(bookingSvc, log),
		Profile:               handler.NewProfileHandler(profileSvc, log),
		Assistant:             handler.NewAssistantHandler(assistantSvc, log),
		Payments:              paymentHandler,
		Metrics:               promhttp.Handler(),
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
