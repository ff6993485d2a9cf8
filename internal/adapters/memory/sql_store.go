package memory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// sqlStore keeps one row per history entry. The whole store is replaced on
// every save, inside a single transaction.
type sqlStore struct {
	db       *sql.DB
	location string
	logger   *zap.Logger
}

func (s *sqlStore) load(ctx context.Context) (*core.MemoryStore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender_email, ts, subject, intent, sentiment, escalated
		FROM interaction_history
		ORDER BY sender_email, seq
	`)
	if err != nil {
		return nil, &core.PersistenceError{Op: "load", Location: s.location, Err: err}
	}
	defer rows.Close()

	senders := make(map[string][]core.HistoryEntry)
	for rows.Next() {
		var sender string
		var entry core.HistoryEntry
		if err := rows.Scan(&sender, &entry.Timestamp, &entry.Subject, &entry.Intent, &entry.Sentiment, &entry.Escalated); err != nil {
			return nil, &core.PersistenceError{Op: "load", Location: s.location, Err: err}
		}
		senders[sender] = append(senders[sender], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.PersistenceError{Op: "load", Location: s.location, Err: err}
	}

	store, err := core.NewMemoryStoreFrom(senders)
	if err != nil {
		return nil, &core.PersistenceError{Op: "load", Location: s.location, Err: err}
	}

	s.logger.Debug("Memory loaded", zap.String("location", s.location), zap.Int("senders", store.Len()))
	return store, nil
}

func (s *sqlStore) save(ctx context.Context, store *core.MemoryStore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.PersistenceError{Op: "save", Location: s.location, Err: err}
	}

	if err := replaceAll(ctx, tx, store); err != nil {
		_ = tx.Rollback()
		return &core.PersistenceError{Op: "save", Location: s.location, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &core.PersistenceError{Op: "save", Location: s.location, Err: err}
	}

	s.logger.Debug("Memory saved", zap.String("location", s.location), zap.Int("senders", store.Len()))
	return nil
}

func replaceAll(ctx context.Context, tx *sql.Tx, store *core.MemoryStore) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM interaction_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO interaction_history (sender_email, seq, ts, subject, intent, sentiment, escalated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sender := range store.Senders() {
		for seq, entry := range store.History(sender) {
			_, err := stmt.ExecContext(ctx, sender, seq, entry.Timestamp, entry.Subject,
				string(entry.Intent), string(entry.Sentiment), entry.Escalated)
			if err != nil {
				return fmt.Errorf("failed to insert history entry for %s: %w", sender, err)
			}
		}
	}
	return nil
}

func (s *sqlStore) close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close memory database", zap.String("location", s.location), zap.Error(err))
	}
}
