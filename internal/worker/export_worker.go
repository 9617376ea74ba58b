package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"tally/internal/amqp"
	"tally/internal/ledger"
	"tally/internal/sheets"
)

// ExportWorker mirrors the ledger into a spreadsheet. The ledger stays the
// system of record; rows are appended on created events, cleared on deleted
// events, and periodically reconciled to repair missed messages.
type ExportWorker struct {
	lister ledger.TransactionLister
	getter ledger.TransactionGetter
	sheet  sheets.Sheet
}

func NewExportWorker(lister ledger.TransactionLister, getter ledger.TransactionGetter, sheet sheets.Sheet) *ExportWorker {
	return &ExportWorker{
		lister: lister,
		getter: getter,
		sheet:  sheet,
	}
}

// HandleEvent applies a single ledger event to the sheet. Redeliveries are
// tolerated: an id already on the sheet is a clean skip, and so is a
// created event whose transaction was deleted again before we saw it.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	switch event.Action {
	case amqp.ActionCreated:
		return w.exportCreated(ctx, event.ID)
	case amqp.ActionDeleted:
		if err := w.sheet.Remove(ctx, event.ID); err != nil {
			return fmt.Errorf("remove row %s: %w", event.ID, err)
		}
		slog.InfoContext(ctx, "Removed exported transaction", "id", event.ID)
		return nil
	default:
		return fmt.Errorf("unknown event action %q", event.Action)
	}
}

func (w *ExportWorker) exportCreated(ctx context.Context, id string) error {
	tx, err := w.getter.Get(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	listed, err := w.sheet.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list sheet ids: %w", err)
	}
	if slices.Contains(listed, id) {
		slog.InfoContext(ctx, "Transaction already exported, skipping", "id", id)
		return nil
	}

	if err := w.sheet.Append(ctx, tx); err != nil {
		return fmt.Errorf("append row %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"type", tx.Type,
		"amount", tx.Amount)
	return nil
}

// ReconcileResult counts the repairs one pass made.
type ReconcileResult struct {
	Appended int
	Removed  int
}

// Reconcile diffs the ledger against the sheet: rows the sheet is missing
// are appended, rows whose transaction no longer exists are cleared.
func (w *ExportWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	transactions, err := w.lister.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list transactions: %w", err)
	}

	listed, err := w.sheet.ListIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list sheet ids: %w", err)
	}

	onSheet := make(map[string]bool, len(listed))
	for _, id := range listed {
		onSheet[id] = true
	}

	inLedger := make(map[string]bool, len(transactions))
	for _, t := range transactions {
		inLedger[t.ID] = true
		if onSheet[t.ID] {
			continue
		}
		if err := w.sheet.Append(ctx, t); err != nil {
			return res, fmt.Errorf("append row %s: %w", t.ID, err)
		}
		res.Appended++
	}

	for _, id := range listed {
		if inLedger[id] {
			continue
		}
		if err := w.sheet.Remove(ctx, id); err != nil {
			return res, fmt.Errorf("remove row %s: %w", id, err)
		}
		res.Removed++
	}

	if res.Appended > 0 || res.Removed > 0 {
		slog.InfoContext(ctx, "Reconciled sheet with ledger",
			"appended", res.Appended,
			"removed", res.Removed)
	}
	return res, nil
}

// RunReconcileLoop runs one pass immediately, then one per interval until
// the context ends. Failed passes are logged and retried on the next tick.
func (w *ExportWorker) RunReconcileLoop(ctx context.Context, interval time.Duration) error {
	if _, err := w.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup reconcile failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "Reconcile failed", "error", err)
			}
		}
	}
}
