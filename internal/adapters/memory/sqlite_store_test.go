package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap/zaptest"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.db")
	repo, err := NewSQLiteStore(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer repo.Stop()

	ctx := context.Background()
	empty, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if empty.Len() != 0 {
		t.Fatalf("expected empty store")
	}

	want := sampleStore(t)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("loaded store differs from saved store")
	}

	// Entry order within a sender survives the round trip
	history := got.History("sarah@example.com")
	if history[0].Subject != "Order not delivered" || history[1].Subject != "Still waiting" {
		t.Fatalf("history out of order: %+v", history)
	}

	// Saving a smaller store removes senders that are gone
	if err := repo.Save(ctx, want.Forget("bob@example.com")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if senders := got.Senders(); len(senders) != 1 || senders[0] != "sarah@example.com" {
		t.Fatalf("senders=%v", senders)
	}

	if err := repo.Save(ctx, core.NewMemoryStore()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil || got.Len() != 0 {
		t.Fatalf("expected empty store, got len=%d err=%v", got.Len(), err)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.db")
	ctx := context.Background()

	repo, err := NewSQLiteStore(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := repo.Save(ctx, sampleStore(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo.Stop()

	reopened, err := NewSQLiteStore(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer reopened.Stop()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(sampleStore(t)) {
		t.Fatalf("store not persisted across reopen")
	}
}

func TestSQLiteAndJSONStoresAgreeOnEmptySenders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	store, err := core.DecodeMemoryStore([]byte(`{"nobody@example.com": []}`))
	if err != nil {
		t.Fatalf("DecodeMemoryStore: %v", err)
	}

	sqlRepo, err := NewSQLiteStore(filepath.Join(dir, "memory.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer sqlRepo.Stop()
	jsonRepo := NewJSONStore(filepath.Join(dir, "memory.json"), JSONStoreOptions{CreateIfMissing: true}, zaptest.NewLogger(t))

	for name, repo := range map[string]core.MemoryRepository{"sqlite": sqlRepo, "json": jsonRepo} {
		if err := repo.Save(ctx, store); err != nil {
			t.Fatalf("%s Save: %v", name, err)
		}
		got, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("%s Load: %v", name, err)
		}
		if !got.Equal(store) || got.Len() != 0 {
			t.Fatalf("%s: senders=%v", name, got.Senders())
		}
	}
}
