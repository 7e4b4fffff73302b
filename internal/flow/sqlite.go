package flow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ivanoskov/gastos_bot/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore хранит состояния диалогов в SQLite, чтобы они переживали перезапуск
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает или создает базу по пути dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS conversations (
		chat_id    INTEGER NOT NULL,
		user_id    INTEGER NOT NULL,
		kind       TEXT NOT NULL,
		state      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (chat_id, user_id)
	);
	`)
	return err
}

// Close закрывает базу
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id model.Identity) (model.ConversationState, error) {
	var kind, raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, state FROM conversations WHERE chat_id = ? AND user_id = ?`,
		id.ChatID, id.UserID,
	).Scan(&kind, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %s: %w", id, err)
	}

	var state model.ConversationState
	switch kind {
	case model.KindExpenseEntry:
		state = &model.ExpenseEntryState{}
	case model.KindReminderEntry:
		state = &model.ReminderEntryState{}
	default:
		return nil, fmt.Errorf("get state %s: unknown kind %q", id, kind)
	}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", id, err)
	}
	return state, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id model.Identity, state model.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (chat_id, user_id, kind, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			kind = excluded.kind, state = excluded.state, updated_at = excluded.updated_at`,
		id.ChatID, id.UserID, state.StateKind(), string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put state %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id model.Identity) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE chat_id = ? AND user_id = ?`,
		id.ChatID, id.UserID,
	); err != nil {
		return fmt.Errorf("delete state %s: %w", id, err)
	}
	return nil
}
