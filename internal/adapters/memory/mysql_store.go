package memory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the MemoryRepository interface
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore connects to MySQL and creates the history table if needed
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS interaction_history (
			sender_email VARCHAR(320) NOT NULL,
			seq INT NOT NULL,
			ts VARCHAR(64) NOT NULL,
			subject TEXT NOT NULL,
			intent VARCHAR(32) NOT NULL,
			sentiment VARCHAR(32) NOT NULL,
			escalated BOOLEAN NOT NULL,
			PRIMARY KEY (sender_email, seq)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Location is logged and reported in errors, so it must not carry the password
	location := fmt.Sprintf("mysql://%s/%s", cfg.Addr, cfg.DBName)
	logger.Info("Using MySQL memory store", zap.String("location", location))

	return &MySQLStore{sqlStore{db: db, location: location, logger: logger}}, nil
}

// Load reads every sender's history
func (s *MySQLStore) Load(ctx context.Context) (*core.MemoryStore, error) {
	return s.load(ctx)
}

// Save replaces the stored history with the given store
func (s *MySQLStore) Save(ctx context.Context, store *core.MemoryStore) error {
	return s.save(ctx, store)
}

// Stop closes the database connection
func (s *MySQLStore) Stop() {
	s.close()
}
