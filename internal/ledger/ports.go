package ledger

import (
	"context"
	"errors"

	"tally/internal/core"
)

// ErrNotFound is returned by Get when no transaction has the id.
var ErrNotFound = errors.New("transaction not found")

// Ports for transaction persistence. Consumers depend on the slice they
// need, not on a concrete ledger.
type (
	TransactionLister interface {
		List(ctx context.Context) ([]core.Transaction, error)
	}

	TransactionGetter interface {
		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	// TransactionCreator validates, normalizes and persists manual
	// entries, assigning their identity.
	TransactionCreator interface {
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// TransactionInserter persists records whose fields were synthesized
	// upstream (the receipt path) without re-validating them.
	TransactionInserter interface {
		Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// TransactionDeleter removes by id, fail-open: deleting an id that
	// does not exist is indistinguishable from success.
	TransactionDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// Ledger combines every transaction port. Both the record-backed
	// repository and the local file ledger satisfy it, so callers can
	// swap storage modes without changing.
	Ledger interface {
		TransactionLister
		TransactionGetter
		TransactionCreator
		TransactionInserter
		TransactionDeleter
	}
)
