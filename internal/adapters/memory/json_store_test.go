package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap/zaptest"
)

func sampleStore(t *testing.T) *core.MemoryStore {
	t.Helper()
	store, err := core.NewMemoryStoreFrom(map[string][]core.HistoryEntry{
		"sarah@example.com": {
			{Timestamp: "2024-01-15T10:30:00", Subject: "Order not delivered", Intent: core.IntentComplaint, Sentiment: core.SentimentNegative, Escalated: true},
			{Timestamp: "2024-01-20T08:00:00Z", Subject: "Still waiting", Intent: core.IntentRequest, Sentiment: core.SentimentNegative},
		},
		"bob@example.com": {
			{Timestamp: "2024-02-01T09:15:00", Subject: "Thanks", Intent: core.IntentFeedback, Sentiment: core.SentimentPositive},
		},
	})
	if err != nil {
		t.Fatalf("NewMemoryStoreFrom: %v", err)
	}
	return store
}

func TestJSONStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "memory.json")
	repo := NewJSONStore(path, JSONStoreOptions{CreateIfMissing: true}, zaptest.NewLogger(t))
	ctx := context.Background()

	want := sampleStore(t)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("loaded store differs from saved store")
	}

	// Saving the loaded store yields byte-identical output
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("save is not stable:\n%s\n---\n%s", first, second)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestJSONStoreMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.json")

	repo := NewJSONStore(path, JSONStoreOptions{CreateIfMissing: true}, zaptest.NewLogger(t))
	store, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}

	strict := NewJSONStore(path, JSONStoreOptions{}, zaptest.NewLogger(t))
	_, err = strict.Load(context.Background())
	if !errors.Is(err, core.ErrPersistence) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected persistence error for missing file, got %v", err)
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	t.Parallel()

	for name, content := range map[string]string{
		"empty":     "",
		"truncated": `{"a@example.com": [`,
		"bad label": `{"a@example.com":[{"timestamp":"2024-01-01T00:00:00","subject":"x","intent":"spam","sentiment":"neutral","escalated":false}]}`,
	} {
		path := filepath.Join(t.TempDir(), "memory.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		strict := NewJSONStore(path, JSONStoreOptions{CreateIfMissing: true}, zaptest.NewLogger(t))
		_, err := strict.Load(context.Background())
		var perr *core.PersistenceError
		if !errors.As(err, &perr) || perr.Op != "load" || perr.Location != path {
			t.Fatalf("%s: expected load PersistenceError, got %v", name, err)
		}

		lenient := NewJSONStore(path, JSONStoreOptions{ResetOnCorrupt: true}, zaptest.NewLogger(t))
		store, err := lenient.Load(context.Background())
		if err != nil {
			t.Fatalf("%s: Load with reset: %v", name, err)
		}
		if store.Len() != 0 {
			t.Fatalf("%s: expected empty store after reset", name)
		}
	}
}

func TestJSONStoreSaveFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// The parent "directory" is a regular file, so the write must fail
	repo := NewJSONStore(filepath.Join(blocker, "memory.json"), JSONStoreOptions{}, zaptest.NewLogger(t))
	err := repo.Save(context.Background(), sampleStore(t))
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestInProcessStore(t *testing.T) {
	t.Parallel()

	repo := NewInProcessStore(zaptest.NewLogger(t))
	ctx := context.Background()

	store, err := repo.Load(ctx)
	if err != nil || store.Len() != 0 {
		t.Fatalf("Load: %v len=%d", err, store.Len())
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
		t.Fatalf("store differs")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := repo.Save(cancelled, want); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
