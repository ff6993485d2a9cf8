package core

import (
	"bytes"
	"errors"
	"testing"
)

const sampleMemory = `{
  "sarah@example.com": [
    {
      "timestamp": "2024-01-15T10:30:00",
      "subject": "Order not delivered",
      "intent": "complaint",
      "sentiment": "negative",
      "escalated": true
    }
  ]
}
`

func TestDecodeEncodeMemoryStoreStableBytes(t *testing.T) {
	t.Parallel()

	store, err := DecodeMemoryStore([]byte(sampleMemory))
	if err != nil {
		t.Fatalf("DecodeMemoryStore: %v", err)
	}

	history := store.History("sarah@example.com")
	if len(history) != 1 || history[0].Intent != IntentComplaint || !history[0].Escalated {
		t.Fatalf("history=%+v", history)
	}

	encoded, err := EncodeMemoryStore(store)
	if err != nil {
		t.Fatalf("EncodeMemoryStore: %v", err)
	}
	if !bytes.Equal(encoded, []byte(sampleMemory)) {
		t.Fatalf("re-encoded store differs:\n%s", encoded)
	}

	again, err := DecodeMemoryStore(encoded)
	if err != nil {
		t.Fatalf("DecodeMemoryStore: %v", err)
	}
	if !store.Equal(again) {
		t.Fatalf("round trip changed the store")
	}
}

func TestDecodeMemoryStoreDropsEmptySenders(t *testing.T) {
	t.Parallel()

	store, err := DecodeMemoryStore([]byte(`{"nobody@example.com": [], "sarah@example.com": [` +
		`{"timestamp": "2024-01-15T10:30:00", "subject": "Hi", "intent": "inquiry", "sentiment": "neutral", "escalated": false}]}`))
	if err != nil {
		t.Fatalf("DecodeMemoryStore: %v", err)
	}
	if senders := store.Senders(); len(senders) != 1 || senders[0] != "sarah@example.com" {
		t.Fatalf("senders=%v", senders)
	}

	encoded, err := EncodeMemoryStore(store)
	if err != nil {
		t.Fatalf("EncodeMemoryStore: %v", err)
	}
	if bytes.Contains(encoded, []byte("nobody@example.com")) {
		t.Fatalf("empty sender written back:\n%s", encoded)
	}
}

func TestEncodeEmptyStore(t *testing.T) {
	t.Parallel()

	for _, store := range []*MemoryStore{nil, NewMemoryStore()} {
		encoded, err := EncodeMemoryStore(store)
		if err != nil {
			t.Fatalf("EncodeMemoryStore: %v", err)
		}
		if string(encoded) != "{}\n" {
			t.Fatalf("got %q", encoded)
		}
	}
}

func TestDecodeMemoryStoreRejectsMalformed(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"not json":      "{",
		"null":          "null",
		"array":         "[]",
		"unknown label": `{"a@example.com":[{"timestamp":"2024-01-01T00:00:00","subject":"x","intent":"spam","sentiment":"neutral","escalated":false}]}`,
		"bad timestamp": `{"a@example.com":[{"timestamp":"last week","subject":"x","intent":"inquiry","sentiment":"neutral","escalated":false}]}`,
	}
	for name, input := range inputs {
		if _, err := DecodeMemoryStore([]byte(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	_, err := DecodeMemoryStore([]byte(`{"a@example.com":[{"timestamp":"2024-01-01T00:00:00","intent":"Spam","sentiment":"neutral"}]}`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMemoryStoreHistoryIsACopy(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStoreFrom(map[string][]HistoryEntry{
		"a@example.com": {entryAt(1, "first")},
	})
	if err != nil {
		t.Fatalf("NewMemoryStoreFrom: %v", err)
	}

	history := store.History("a@example.com")
	history[0].Subject = "changed"
	if got := store.History("a@example.com")[0].Subject; got != "first" {
		t.Fatalf("store mutated through History: %q", got)
	}
	if store.History("missing@example.com") != nil {
		t.Fatalf("expected nil history for unknown sender")
	}
}

func TestMemoryStoreForget(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStoreFrom(map[string][]HistoryEntry{
		"a@example.com": {entryAt(1, "a")},
		"b@example.com": {entryAt(2, "b")},
	})
	if err != nil {
		t.Fatalf("NewMemoryStoreFrom: %v", err)
	}

	next := store.Forget("a@example.com")
	if got := next.Senders(); len(got) != 1 || got[0] != "b@example.com" {
		t.Fatalf("senders=%v", got)
	}
	if store.Len() != 2 {
		t.Fatalf("Forget modified the receiver")
	}
	if store.Equal(next) {
		t.Fatalf("stores should differ")
	}
	var empty *MemoryStore
	if !empty.Equal(NewMemoryStore()) {
		t.Fatalf("nil and empty stores should be equal")
	}
}
