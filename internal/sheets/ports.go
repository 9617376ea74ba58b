package sheets

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound spreadsheet adapters. The sheet is a read-side copy
// of the ledger, keyed by transaction id in column A.
type (
	RowAppender interface {
		Append(ctx context.Context, t core.Transaction) error
	}

	// RowRemover clears the row holding the id. Removing an id that is
	// not on the sheet is not an error.
	RowRemover interface {
		Remove(ctx context.Context, id string) error
	}

	RowLister interface {
		ListIDs(ctx context.Context) ([]string, error)
	}

	// Sheet combines the ports the export worker needs.
	Sheet interface {
		RowAppender
		RowRemover
		RowLister
	}
)
