package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP / gRPC
	Port     string
	GRPCAddr string

	// Database
	DBDSN string

	// Security
	JWTSecret string

	// Messaging
	AMQPURL        string
	EventsExchange string
	LogsExchange   string

	// Application
	ServiceName        string
	Environment        string
	LogLevel           string
	DeepLinkScheme     string
	PermissionCacheTTL time.Duration
	DeletionGrace      time.Duration
	HealthCheckEvery   time.Duration

	// Tracing
	OTLPEndpoint string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":8085"),

		DBDSN:     getEnv("DB_DSN", ""),
		JWTSecret: getEnv("JWT_SECRET", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "app.events"),
		LogsExchange:   getEnv("LOGS_EXCHANGE", "logs.events"),

		ServiceName:        getEnv("SERVICE_NAME", "community-service"),
		Environment:        getEnv("ENVIRONMENT", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DeepLinkScheme:     getEnv("DEEPLINK_SCHEME", "smallgroups"),
		PermissionCacheTTL: getEnvDuration("PERMISSION_CACHE_TTL", 5*time.Minute),
		DeletionGrace:      getEnvDuration("DELETION_GRACE", 2*time.Minute),
		HealthCheckEvery:   getEnvDuration("HEALTH_CHECK_INTERVAL", 15*time.Second),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PermissionCacheTTL <= 0 {
		return fmt.Errorf("PERMISSION_CACHE_TTL must be positive")
	}
	if c.DeepLinkScheme == "" {
		return fmt.Errorf("DEEPLINK_SCHEME must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
