// Package backend selects and constructs the expense store a process
// runs against.
package backend

import (
	"fmt"

	"spendtrack/internal/config"
	"spendtrack/internal/store"
)

// CleanupFunc releases resources owned by a backend.
type CleanupFunc func() error

// Result contains the store instance and its cleanup function.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Type represents the kind of store backend
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	RESTBackend   Type = "rest"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, RESTBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// REST specific
	BaseURL string
	APIKey  string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.StoreBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.StoreBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BaseURL:      appConfig.BackendURL,
		APIKey:       appConfig.BackendAPIKey,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RESTBackend:
		if c.BaseURL == "" {
			return fmt.Errorf("base URL is required for rest backend")
		}
		if c.APIKey == "" {
			return fmt.Errorf("API key is required for rest backend")
		}
	case MemoryBackend:
		// Nothing to validate.
	}

	return nil
}
