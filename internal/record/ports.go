package record

import (
	"context"
	"errors"
)

// ErrNoRecord is returned by Get when the key is absent.
var ErrNoRecord = errors.New("record not found")

// Port for the persistence collaborator.
type (
	// Entry is one stored key/value pair returned by a prefix scan.
	Entry struct {
		Key   string
		Value []byte
	}

	// Store is an opaque persistent mapping from string keys to JSON
	// values. Implementations serialize individual key operations but
	// offer no cross-key transactions.
	Store interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		// Delete is fail-open: removing an absent key succeeds.
		Delete(ctx context.Context, key string) error
		// Scan returns every entry whose key starts with prefix.
		Scan(ctx context.Context, prefix string) ([]Entry, error)
	}
)
