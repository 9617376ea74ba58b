package memory

import (
	"context"
	"sync"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

// Sheet is an in-memory stand-in for the spreadsheet, used in development
// and tests.
type Sheet struct {
	mu   sync.Mutex
	rows []core.Transaction
}

// Ensure interface conformance
var (
	_ ports.RowAppender = (*Sheet)(nil)
	_ ports.RowRemover  = (*Sheet)(nil)
	_ ports.RowLister   = (*Sheet)(nil)
)

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) Append(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, t)
	return nil
}

func (s *Sheet) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	return nil
}

func (s *Sheet) ListIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rows))
	for _, row := range s.rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Rows returns a copy of the stored rows, for assertions in tests.
func (s *Sheet) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.rows))
	copy(out, s.rows)
	return out
}
