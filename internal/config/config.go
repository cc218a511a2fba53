// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Env                string
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	CORSOrigins        []string

	// Database settings
	DatabaseURL    string
	MigrateOnStart bool

	// NATS settings. An empty URL disables booking events.
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Redis holds signed-out sessions. An empty URL keeps them in memory.
	RedisURL string

	// Auth service settings
	AuthURL     string
	AuthAnonKey string
	JWTSecret   string

	// LLM settings
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	DefaultLLM       string
	LLMModel         string
	AssistantTimeout time.Duration
	AssistantIdleTTL time.Duration

	// Payment settings
	PaymentFunctionURL      string
	PaymentWebhookSecret    string
	PaymentCurrency         string
	PaymentTimeout          time.Duration
	PaymentWebhookTolerance time.Duration

	// Rate limiting
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	AssistantRateLimit    int

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
// Returns an error naming every required variable that is not set.
func Load() (*Config, error) {
	cfg := &Config{
		// Server
		Env:                getEnv("ENV", "production"),
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 90*time.Second),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8080,http://localhost:5173")),

		// Database
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: getBoolEnv("MIGRATE_ON_START", true),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Auth
		AuthURL:     strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		AuthAnonKey: getEnv("AUTH_ANON_KEY", ""),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		// LLM
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:       getEnv("DEFAULT_LLM", "anthropic"),
		LLMModel:         getEnv("LLM_MODEL", ""),
		AssistantTimeout: getDurationEnv("ASSISTANT_TIMEOUT", 45*time.Second),
		AssistantIdleTTL: getDurationEnv("ASSISTANT_IDLE_TTL", 30*time.Minute),

		// Payment
		PaymentFunctionURL:      getEnv("PAYMENT_FUNCTION_URL", ""),
		PaymentWebhookSecret:    getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PaymentCurrency:         strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		PaymentTimeout:          getDurationEnv("PAYMENT_TIMEOUT", 20*time.Second),
		PaymentWebhookTolerance: getDurationEnv("PAYMENT_WEBHOOK_TOLERANCE", 5*time.Minute),

		// Rate limiting
		RateLimitRequests:     getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:       getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		AuthRateLimitRequests: getIntEnv("AUTH_RATE_LIMIT_REQUESTS", 10),
		AssistantRateLimit:    getIntEnv("ASSISTANT_RATE_LIMIT_REQUESTS", 20),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.AuthURL == "" {
		missing = append(missing, "AUTH_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// PaymentsEnabled reports whether paid checkout can create payment sessions.
func (c *Config) PaymentsEnabled() bool {
	return c.PaymentFunctionURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
