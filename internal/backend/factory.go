package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/ledger"
	"tally/internal/local"
	"tally/internal/record/mongo"
	"tally/internal/record/sqlite"
)

// pingLedger pairs a ledger with the health probe of the store behind
// it. A nil probe means the backend has nothing remote to check.
type pingLedger struct {
	ledger.Ledger
	ping func(ctx context.Context) error
}

func (p *pingLedger) Ping(ctx context.Context) error {
	if p.ping == nil {
		return nil
	}
	return p.ping(ctx)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case LocalBackend:
		return f.createLocalBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := sqlite.New(config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLitePath)

	return &BackendResult{
		Backend: &pingLedger{Ledger: ledger.NewRepository(store), ping: store.Ping},
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := mongo.New(ctx, config.MongoURI, config.MongoDatabase, config.MongoCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend",
		"database", config.MongoDatabase,
		"collection", config.MongoCollection)

	cleanup := func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return store.Close(closeCtx)
	}

	return &BackendResult{
		Backend: &pingLedger{Ledger: ledger.NewRepository(store), ping: store.Ping},
		Cleanup: cleanup,
	}, nil
}

func (f *DefaultFactory) createLocalBackend(config Config) (*BackendResult, error) {
	lgr, err := local.Open(config.LocalFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open local ledger file: %w", err)
	}

	f.logger.Info("Initialized local file backend", "file", config.LocalFile)

	return &BackendResult{
		Backend: &pingLedger{Ledger: lgr},
		Cleanup: nil, // Writes are flushed per operation, nothing to close
	}, nil
}
