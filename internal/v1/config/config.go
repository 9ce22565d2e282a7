// Package config validates environment configuration at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds validated environment configuration
type Config struct {
	// Listen port (defaults to 8000)
	Port string

	// Optional variables with defaults
	GoEnv          string
	LogLevel       string
	AllowedOrigins string

	// Room lifecycle
	RoomIdleTTL time.Duration // 0 disables idle eviction

	// Rate limits (ulule format, M = minute, H = hour)
	RateLimitAPI       string
	RateLimitMatchmake string

	// Tracing (enabled when the collector address is set)
	OTelCollectorAddr string
}

// ValidateEnv validates all environment variables and returns a Config.
// Returns an error describing every invalid variable at once.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// PORT (defaults to 8000, the port the reference client dials)
	cfg.Port = getEnvOrDefault("PORT", "8000")
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
	}

	// GO_ENV (defaults to "production")
	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")

	// LOG_LEVEL (defaults to "info")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// ALLOWED_ORIGINS: comma-separated list; "*" means any origin
	cfg.AllowedOrigins = getEnvOrDefault("ALLOWED_ORIGINS", "*")

	// ROOM_IDLE_TTL: Go duration; 0 retains finished rooms forever
	ttlRaw := getEnvOrDefault("ROOM_IDLE_TTL", "0")
	ttl, err := time.ParseDuration(ttlRaw)
	if err != nil || ttl < 0 {
		errors = append(errors, fmt.Sprintf("ROOM_IDLE_TTL must be a non-negative duration (got '%s')", ttlRaw))
	} else {
		cfg.RoomIdleTTL = ttl
	}

	cfg.RateLimitAPI = getEnvOrDefault("RATE_LIMIT_API", "600-M")
	cfg.RateLimitMatchmake = getEnvOrDefault("RATE_LIMIT_MATCHMAKE", "30-M")

	cfg.OTelCollectorAddr = os.Getenv("OTEL_COLLECTOR_ADDR")

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return cfg, nil
}

// Origins returns the allowed origins as a slice.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
