package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/record"

	"github.com/google/uuid"
)

// KeyPrefix namespaces transaction records in the store.
const KeyPrefix = "transaction:"

// Key returns the store key for a transaction id.
func Key(id string) string {
	return KeyPrefix + id
}

// Repository persists transactions as JSON values under KeyPrefix'd keys.
// Every operation issues exactly one store call; there are no multi-key
// transactions to lean on.
type Repository struct {
	store record.Store
	now   func() time.Time
}

var (
	_ TransactionLister   = (*Repository)(nil)
	_ TransactionGetter   = (*Repository)(nil)
	_ TransactionCreator  = (*Repository)(nil)
	_ TransactionInserter = (*Repository)(nil)
	_ TransactionDeleter  = (*Repository)(nil)
)

func NewRepository(store record.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// List returns every stored transaction, newest first by creation time.
// The id is recovered from the key and wins over whatever id the stored
// JSON carries. Records that no longer parse are skipped, not fatal.
func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	entries, err := r.store.Scan(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(entries))
	for _, e := range entries {
		var t core.Transaction
		if err := json.Unmarshal(e.Value, &t); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable transaction record",
				"key", e.Key,
				"error", err)
			continue
		}
		t.ID = strings.TrimPrefix(e.Key, KeyPrefix)
		txs = append(txs, t)
	}

	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.Transaction, error) {
	value, err := r.store.Get(ctx, Key(id))
	if errors.Is(err, record.ErrNoRecord) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}

	var t core.Transaction
	if err := json.Unmarshal(value, &t); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", id, err)
	}
	t.ID = id
	return t, nil
}

// Create validates and persists a manual entry.
func (r *Repository) Create(ctx context.Context, in core.Transaction) (core.Transaction, error) {
	t, err := core.NewManual(in, r.now())
	if err != nil {
		return core.Transaction{}, err
	}
	return r.persist(ctx, t)
}

// Insert persists an already-synthesized record without re-validating it.
func (r *Repository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return r.persist(ctx, t)
}

func (r *Repository) persist(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = r.now().UTC()

	value, err := json.Marshal(t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode transaction: %w", err)
	}
	if err := r.store.Set(ctx, Key(t.ID), value); err != nil {
		return core.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction stored",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount,
		"source", t.Source)
	return t, nil
}

// Delete removes a transaction unconditionally. Deleting an unknown id
// reports success.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Key(id)); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}
