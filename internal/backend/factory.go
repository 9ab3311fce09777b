package backend

import (
	"fmt"

	"spendtrack/internal/log"
	"spendtrack/internal/store/memory"
	"spendtrack/internal/store/rest"
	"spendtrack/internal/store/sqlite"
)

// Factory creates store backends based on configuration.
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentBackend)
	}
	return &Factory{logger: logger}
}

// Create builds the store described by config.
func (f *Factory) Create(config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemory()
	case SQLiteBackend:
		return f.createSQLite(config)
	case RESTBackend:
		return f.createREST(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *Factory) createMemory() (*Result, error) {
	f.logger.Info("using in-memory store", log.FieldBackend, MemoryBackend)
	st := memory.New()
	return &Result{
		Store:   st,
		Cleanup: st.Close,
	}, nil
}

func (f *Factory) createSQLite(config Config) (*Result, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	f.logger.Info("using sqlite store",
		log.FieldBackend, SQLiteBackend,
		"db_path", config.SQLiteDBPath)
	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *Factory) createREST(config Config) (*Result, error) {
	client := rest.NewClient(config.BaseURL, config.APIKey)

	f.logger.Info("using rest store",
		log.FieldBackend, RESTBackend,
		"base_url", config.BaseURL)
	return &Result{
		Store:   client,
		Cleanup: client.Close,
	}, nil
}
