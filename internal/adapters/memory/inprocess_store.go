package memory

import (
	"context"
	"sync"

	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// InProcessStore keeps the memory store in process memory only. History is
// lost when the process exits.
type InProcessStore struct {
	store  *core.MemoryStore
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewInProcessStore creates an empty in-process memory repository
func NewInProcessStore(logger *zap.Logger) *InProcessStore {
	return &InProcessStore{
		store:  core.NewMemoryStore(),
		logger: logger,
	}
}

// Load returns the current store
func (s *InProcessStore) Load(ctx context.Context) (*core.MemoryStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.PersistenceError{Op: "load", Location: "in-process", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, nil
}

// Save replaces the current store. Stores are immutable, so no copy is needed.
func (s *InProcessStore) Save(ctx context.Context, store *core.MemoryStore) error {
	if err := ctx.Err(); err != nil {
		return &core.PersistenceError{Op: "save", Location: "in-process", Err: err}
	}
	if store == nil {
		store = core.NewMemoryStore()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.logger.Debug("Memory saved", zap.String("location", "in-process"), zap.Int("senders", store.Len()))
	return nil
}
