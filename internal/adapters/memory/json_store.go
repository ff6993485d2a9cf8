package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// JSONStore persists the memory store as a single JSON document keyed by sender
type JSONStore struct {
	path            string
	createIfMissing bool
	resetOnCorrupt  bool
	logger          *zap.Logger
	mu              sync.Mutex
}

// JSONStoreOptions controls how missing and unreadable files are handled
type JSONStoreOptions struct {
	CreateIfMissing bool
	ResetOnCorrupt  bool
}

// NewJSONStore creates a new JSON file memory repository
func NewJSONStore(path string, opts JSONStoreOptions, logger *zap.Logger) *JSONStore {
	return &JSONStore{
		path:            path,
		createIfMissing: opts.CreateIfMissing,
		resetOnCorrupt:  opts.ResetOnCorrupt,
		logger:          logger,
	}
}

// Path returns the file backing the store
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the store from disk. A missing file becomes an empty store when
// CreateIfMissing is set; an unparseable one when ResetOnCorrupt is set.
func (s *JSONStore) Load(ctx context.Context) (*core.MemoryStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.PersistenceError{Op: "load", Location: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && s.createIfMissing {
			s.logger.Info("Memory file not found, starting with an empty store", zap.String("path", s.path))
			return core.NewMemoryStore(), nil
		}
		return nil, &core.PersistenceError{Op: "load", Location: s.path, Err: err}
	}

	store, err := core.DecodeMemoryStore(data)
	if err != nil {
		if s.resetOnCorrupt {
			s.logger.Warn("Memory file is corrupt, starting with an empty store",
				zap.String("path", s.path),
				zap.Error(err))
			return core.NewMemoryStore(), nil
		}
		return nil, &core.PersistenceError{Op: "load", Location: s.path, Err: err}
	}

	s.logger.Debug("Memory loaded",
		zap.String("path", s.path),
		zap.Int("senders", store.Len()))
	return store, nil
}

// Save writes the whole store, replacing the file atomically
func (s *JSONStore) Save(ctx context.Context, store *core.MemoryStore) error {
	if err := ctx.Err(); err != nil {
		return &core.PersistenceError{Op: "save", Location: s.path, Err: err}
	}

	data, err := core.EncodeMemoryStore(store)
	if err != nil {
		return &core.PersistenceError{Op: "save", Location: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return &core.PersistenceError{Op: "save", Location: s.path, Err: err}
	}

	s.logger.Debug("Memory saved",
		zap.String("path", s.path),
		zap.Int("senders", store.Len()))
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and renames it into place
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp_memory_*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
