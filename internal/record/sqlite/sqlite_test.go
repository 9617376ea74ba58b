package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "transaction:abc", []byte(`{"amount":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "transaction:abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"amount":1}` {
		t.Fatalf("expected stored value back, got %s", got)
	}

	if err := s.Set(ctx, "transaction:abc", []byte(`{"amount":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = s.Get(ctx, "transaction:abc")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(got) != `{"amount":2}` {
		t.Fatalf("expected overwritten value, got %s", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "transaction:nope"); !errors.Is(err, record.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestStoreDeleteFailOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Delete(ctx, "transaction:never-existed"); err != nil {
		t.Fatalf("deleting an absent key should succeed, got %v", err)
	}

	if err := s.Set(ctx, "transaction:x", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete(ctx, "transaction:x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "transaction:x"); !errors.Is(err, record.ErrNoRecord) {
		t.Fatalf("expected key gone, got %v", err)
	}
}

func TestStoreScanPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := map[string]string{
		"transaction:b": `{"n":2}`,
		"transaction:a": `{"n":1}`,
		"settings:ui":   `{"n":3}`,
	}
	for k, v := range seed {
		if err := s.Set(ctx, k, []byte(v)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	entries, err := s.Scan(ctx, "transaction:")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "transaction:a" || entries[1].Key != "transaction:b" {
		t.Fatalf("expected keys ordered, got %v", entries)
	}

	empty, err := s.Scan(ctx, "missing:")
	if err != nil {
		t.Fatalf("scan empty prefix: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no entries, got %v", empty)
	}
}

func TestStoreScanEscapesWildcards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "a%b:1", []byte(`1`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "axb:2", []byte(`2`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	entries, err := s.Scan(ctx, "a%b:")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "a%b:1" {
		t.Fatalf("wildcards must match literally, got %v", entries)
	}
}
