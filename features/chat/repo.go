package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
)

type Repository interface {
	GetContext(ctx context.Context, sessionID string) (SessionContext, error)
	SaveContext(ctx context.Context, sessionID string, sctx SessionContext) error
	AppendMessage(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string) ([]Message, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// GetContext loads the session's stored context. A missing session or an
// unparseable context blob both yield an empty context, so a corrupted row
// degrades to a fresh session instead of failing the request.
func (r *PostgresRepo) GetContext(ctx context.Context, sessionID string) (SessionContext, error) {
	var raw sql.NullString
	query := `SELECT context FROM sessions WHERE session_id = $1`
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionContext{}, nil
	}
	if err != nil {
		return SessionContext{}, err
	}
	if !raw.Valid || raw.String == "" {
		return SessionContext{}, nil
	}

	var sctx SessionContext
	if err := json.Unmarshal([]byte(raw.String), &sctx); err != nil {
		slog.Warn("discarding unparseable session context", "session_id", sessionID, "error", err)
		return SessionContext{}, nil
	}
	return sctx, nil
}

func (r *PostgresRepo) SaveContext(ctx context.Context, sessionID string, sctx SessionContext) error {
	raw, err := json.Marshal(sctx)
	if err != nil {
		return err
	}
	query := `INSERT INTO sessions (session_id, context, last_active)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET context = EXCLUDED.context, last_active = NOW()`
	_, err = r.db.ExecContext(ctx, query, sessionID, string(raw))
	return err
}

// AppendMessage records one chat turn. The session row is created on first
// use and its last_active refreshed, in the same transaction as the
// history insert.
func (r *PostgresRepo) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sessionQuery := `INSERT INTO sessions (session_id) VALUES ($1)
		ON CONFLICT (session_id) DO UPDATE SET last_active = NOW()`
	if _, err := tx.ExecContext(ctx, sessionQuery, sessionID); err != nil {
		return err
	}

	historyQuery := `INSERT INTO chat_history (session_id, role, content) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, historyQuery, sessionID, role, content); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepo) History(ctx context.Context, sessionID string) ([]Message, error) {
	query := `SELECT role, content, timestamp FROM chat_history WHERE session_id = $1 ORDER BY timestamp ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
