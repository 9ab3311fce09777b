// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Store backend selection
	StoreBackend string

	// SQLite backend
	SQLiteDBPath string

	// REST backend. BackendURL and BackendAPIKey also drive the remote
	// token verifier.
	BackendURL    string
	BackendAPIKey string

	// Auth
	AuthMode     string
	StaticTokens string

	// Tenant scoping. Off by default: reads return every row and only
	// writes are stamped with the caller's identity.
	TenantScoping bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Audit worker
	AuditDBPath string

	// Rate limiting
	RateLimitPerMinute int

	// Stats cache
	StatsCacheTTL time.Duration
}

// Auth modes
const (
	AuthModeRemote = "remote"
	AuthModeStatic = "static"
)

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendtrack.db"),

		BackendURL:    getEnvFallback("BACKEND_URL", "SUPABASE_URL", ""),
		BackendAPIKey: getEnvFallback("BACKEND_API_KEY", "SUPABASE_ANON_KEY", ""),

		AuthMode:     getEnv("AUTH_MODE", AuthModeRemote),
		StaticTokens: getEnv("STATIC_TOKENS", ""),

		TenantScoping: getEnvBool("TENANT_SCOPING", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendtrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		AuditDBPath: getEnv("AUDIT_DB_PATH", "./data/audit.db"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		StatsCacheTTL: getEnvDuration("STATS_CACHE_TTL", 30*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "rest"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StoreBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	if c.StoreBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.StoreBackend == "rest" {
		if c.BackendURL == "" {
			errors = append(errors, "backend URL is required when using rest backend (BACKEND_URL or SUPABASE_URL)")
		} else if parsedURL, err := url.Parse(c.BackendURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid backend URL '%s': %v", c.BackendURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid backend URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.BackendAPIKey == "" {
			errors = append(errors, "backend API key is required when using rest backend (BACKEND_API_KEY or SUPABASE_ANON_KEY)")
		}
	}

	switch c.AuthMode {
	case AuthModeRemote:
		if c.BackendURL == "" {
			errors = append(errors, "backend URL is required for remote auth (BACKEND_URL or SUPABASE_URL)")
		}
	case AuthModeStatic:
		if c.StaticTokens == "" {
			errors = append(errors, "STATIC_TOKENS cannot be empty when AUTH_MODE is static")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid auth mode '%s': must be 'remote' or 'static'", c.AuthMode))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.StatsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid stats cache TTL %v: must not be negative", c.StatsCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create database directory '%s': %v", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFallback tries the primary key first, then the legacy key.
func getEnvFallback(key, fallbackKey, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := os.Getenv(fallbackKey); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
