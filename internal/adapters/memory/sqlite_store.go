package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the MemoryRepository interface
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (and if needed creates) the SQLite memory database
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single connection serializes writers and keeps the transaction on one handle
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS interaction_history (
			sender_email TEXT NOT NULL,
			seq INTEGER NOT NULL,
			ts TEXT NOT NULL,
			subject TEXT NOT NULL,
			intent TEXT NOT NULL,
			sentiment TEXT NOT NULL,
			escalated BOOLEAN NOT NULL,
			PRIMARY KEY (sender_email, seq)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("Using SQLite memory store", zap.String("path", dbPath))

	return &SQLiteStore{sqlStore{db: db, location: dbPath, logger: logger}}, nil
}

// Load reads every sender's history
func (s *SQLiteStore) Load(ctx context.Context) (*core.MemoryStore, error) {
	return s.load(ctx)
}

// Save replaces the stored history with the given store
func (s *SQLiteStore) Save(ctx context.Context, store *core.MemoryStore) error {
	return s.save(ctx, store)
}

// Stop closes the database connection
func (s *SQLiteStore) Stop() {
	s.close()
}
