package backend

import (
	"context"

	"tally/internal/ledger"
)

// Backend is a transaction ledger together with a health probe. The
// readiness endpoint uses Ping to decide whether the store behind the
// ledger is reachable.
type Backend interface {
	ledger.Ledger
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLitePath string

	// MongoDB specific
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Local file ledger specific
	LocalFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MongoBackend  BackendType = "mongo"
	LocalBackend  BackendType = "local"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MongoBackend, LocalBackend:
		return true
	default:
		return false
	}
}
