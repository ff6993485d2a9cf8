package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// MemoryStore maps sender addresses to their interaction history, oldest first.
//
// A MemoryStore is an immutable value: operations that change it return a new
// store and leave the receiver untouched, so a caller holding an older
// reference keeps seeing the older contents.
type MemoryStore struct {
	senders map[string][]HistoryEntry
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{senders: make(map[string][]HistoryEntry)}
}

// NewMemoryStoreFrom builds a store from a sender map after validating every entry.
// The map and its slices are copied.
func NewMemoryStoreFrom(senders map[string][]HistoryEntry) (*MemoryStore, error) {
	store := NewMemoryStore()
	for sender, history := range senders {
		if sender == "" {
			return nil, NewValidationError("sender", "sender address is required")
		}
		for i := range history {
			if err := history[i].Validate(); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", sender, i, err)
			}
		}
		// Senders without entries are not kept
		if len(history) == 0 {
			continue
		}
		store.senders[sender] = append([]HistoryEntry(nil), history...)
	}
	return store, nil
}

// History returns a copy of the sender's history, oldest first
func (s *MemoryStore) History(sender string) []HistoryEntry {
	if s == nil {
		return nil
	}
	history, ok := s.senders[sender]
	if !ok {
		return nil
	}
	return append([]HistoryEntry(nil), history...)
}

// Senders returns all sender addresses in sorted order
func (s *MemoryStore) Senders() []string {
	if s == nil {
		return nil
	}
	senders := make([]string, 0, len(s.senders))
	for sender := range s.senders {
		senders = append(senders, sender)
	}
	sort.Strings(senders)
	return senders
}

// Len returns the number of senders in the store
func (s *MemoryStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.senders)
}

// Forget returns a store without the sender's history
func (s *MemoryStore) Forget(sender string) *MemoryStore {
	next := s.clone()
	delete(next.senders, sender)
	return next
}

// Equal reports whether both stores hold the same senders and entries
func (s *MemoryStore) Equal(other *MemoryStore) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for sender, history := range s.senders {
		theirs, ok := other.senders[sender]
		if !ok || len(theirs) != len(history) {
			return false
		}
		for i := range history {
			if history[i] != theirs[i] {
				return false
			}
		}
	}
	return true
}

// withHistory returns a store where the sender's history is replaced
func (s *MemoryStore) withHistory(sender string, history []HistoryEntry) *MemoryStore {
	next := s.clone()
	next.senders[sender] = history
	return next
}

// clone copies the sender map; history slices are shared because they are never mutated in place
func (s *MemoryStore) clone() *MemoryStore {
	next := NewMemoryStore()
	if s == nil {
		return next
	}
	for sender, history := range s.senders {
		next.senders[sender] = history
	}
	return next
}

// MarshalJSON encodes the store as an object keyed by sender address.
// encoding/json sorts map keys, which keeps the output stable across saves.
func (s *MemoryStore) MarshalJSON() ([]byte, error) {
	if s == nil || s.senders == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.senders)
}

// UnmarshalJSON decodes and validates a store
func (s *MemoryStore) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("memory store must be a JSON object, got null")
	}

	var senders map[string][]HistoryEntry
	if err := json.Unmarshal(data, &senders); err != nil {
		return err
	}

	store, err := NewMemoryStoreFrom(senders)
	if err != nil {
		return err
	}
	s.senders = store.senders
	return nil
}

// EncodeMemoryStore renders the canonical on-disk form: two-space indent and a trailing newline
func EncodeMemoryStore(store *MemoryStore) ([]byte, error) {
	b, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode memory store: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeMemoryStore parses the on-disk form
func DecodeMemoryStore(data []byte) (*MemoryStore, error) {
	store := &MemoryStore{}
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("failed to decode memory store: %w", err)
	}
	return store, nil
}
