package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/classifier"
	"tally/internal/core"
	"tally/internal/ledger"
)

// EventPublisher is the messaging surface for ledger change events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// TransactionService orchestrates ledger writes and best-effort event
// publishing. The ledger is the source of truth; events only feed the
// export worker, so a publish failure never fails the request.
type TransactionService struct {
	ledger    ledger.Ledger
	publisher EventPublisher
	now       func() time.Time
}

func NewTransactionService(l ledger.Ledger, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		ledger:    l,
		publisher: publisher,
		now:       time.Now,
	}
}

// List returns every stored transaction, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.ledger.List(ctx)
}

// Create validates and stores a manually entered transaction, then
// publishes a created event. Validation failures pass through untouched;
// their message is the one the API reports.
func (s *TransactionService) Create(ctx context.Context, in core.Transaction) (core.Transaction, error) {
	stored, err := s.ledger.Create(ctx, in)
	if errors.Is(err, core.ErrValidation) {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publishEvent(ctx, stored.ID, amqp.ActionCreated)

	return stored, nil
}

// FromReceipt records a transaction built from classified receipt data.
// The record keeps whatever the classifier managed to read, so it skips
// manual-entry validation (a zero amount is storable).
func (s *TransactionService) FromReceipt(ctx context.Context, data classifier.ReceiptData) (core.Transaction, error) {
	stored, err := s.ledger.Insert(ctx, data.Transaction(s.now()))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("store receipt transaction: %w", err)
	}

	s.publishEvent(ctx, stored.ID, amqp.ActionCreated)

	return stored, nil
}

// Delete removes a transaction by id and publishes a deleted event.
// Deleting an id that was never stored still succeeds.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishEvent(ctx, id, amqp.ActionDeleted)

	return nil
}

// Analytics aggregates the full ledger into the dashboard summary.
func (s *TransactionService) Analytics(ctx context.Context) (core.Analytics, error) {
	transactions, err := s.ledger.List(ctx)
	if err != nil {
		return core.Analytics{}, fmt.Errorf("list transactions: %w", err)
	}

	return core.Aggregate(transactions), nil
}

func (s *TransactionService) publishEvent(ctx context.Context, id, action string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event",
			"id", id, "action", action)
		return
	}

	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(id, action)); err != nil {
		// Don't fail the request, the ledger write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "action", action, "error", err)
	}
}
