package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"

	"github.com/google/uuid"
)

// Ledger is the durable local fallback: an in-memory transaction list,
// mutated only through core.Reduce, persisted after every change as a JSON
// array in a single file. It satisfies the same ports as the networked
// repository, so nothing downstream can tell the two apart.
type Ledger struct {
	mu    sync.Mutex
	state core.State
	path  string
	now   func() time.Time
}

var (
	_ ledger.TransactionLister   = (*Ledger)(nil)
	_ ledger.TransactionGetter   = (*Ledger)(nil)
	_ ledger.TransactionCreator  = (*Ledger)(nil)
	_ ledger.TransactionInserter = (*Ledger)(nil)
	_ ledger.TransactionDeleter  = (*Ledger)(nil)
)

// Open loads the ledger file. A missing file is an empty ledger, not an
// error.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	l := &Ledger{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("decode ledger file %s: %w", path, err)
	}
	l.state = core.Reduce(core.State{}, core.Load{Transactions: txs})
	return l, nil
}

func (l *Ledger) List(_ context.Context) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := append([]core.Transaction(nil), l.state.Transactions...)
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

func (l *Ledger) Get(_ context.Context, id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, t := range l.state.Transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ledger.ErrNotFound
}

// Create validates and persists a manual entry, same contract as the
// networked repository.
func (l *Ledger) Create(_ context.Context, in core.Transaction) (core.Transaction, error) {
	t, err := core.NewManual(in, l.now())
	if err != nil {
		return core.Transaction{}, err
	}
	return l.add(t)
}

// Insert persists an already-synthesized record without re-validating it.
func (l *Ledger) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	return l.add(t)
}

func (l *Ledger) add(t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	next := core.Reduce(l.state, core.Add{Transaction: t})
	if err := l.flush(next); err != nil {
		return core.Transaction{}, err
	}
	l.state = next
	return t, nil
}

// Delete removes by id, fail-open like the networked repository.
func (l *Ledger) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := core.Reduce(l.state, core.Remove{ID: id})
	if err := l.flush(next); err != nil {
		return err
	}
	l.state = next
	return nil
}

// flush writes the whole list to a temp file and renames it into place:
// one durable write per mutation.
func (l *Ledger) flush(s core.State) error {
	data, err := json.MarshalIndent(s.Transactions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
