package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getSessionQuery = `
SELECT id, mode, history, thread_id, transcript, created_at, updated_at
FROM chat_sessions
WHERE id = $1 AND ($2::timestamptz IS NULL OR updated_at > $2)`

	upsertSessionQuery = `
INSERT INTO chat_sessions (id, mode, history, thread_id, transcript, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    mode = EXCLUDED.mode,
    history = EXCLUDED.history,
    thread_id = EXCLUDED.thread_id,
    transcript = EXCLUDED.transcript,
    updated_at = EXCLUDED.updated_at`

	deleteSessionQuery = `DELETE FROM chat_sessions WHERE id = $1`

	deleteExpiredQuery = `DELETE FROM chat_sessions WHERE updated_at < $1`
)

// SessionPostgres stores chat sessions in PostgreSQL. Sessions idle for longer
// than ttl are treated as missing; a zero ttl disables expiry.
type SessionPostgres struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

func NewSessionPostgres(db *pgxpool.Pool, ttl time.Duration) *SessionPostgres {
	return &SessionPostgres{
		db:  db,
		ttl: ttl,
	}
}

func (r *SessionPostgres) Get(ctx context.Context, id string) (*entity.Session, error) {
	var (
		s          entity.Session
		mode       string
		history    []byte
		transcript []byte
	)

	err := r.db.QueryRow(ctx, getSessionQuery, id, r.notBefore()).Scan(
		&s.ID, &mode, &history, &s.ThreadID, &transcript, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	s.Mode = entity.ChatMode(mode)

	if err := json.Unmarshal(history, &s.History); err != nil {
		return nil, fmt.Errorf("%w: decode session history: %v", entity.ErrData, err)
	}
	if len(transcript) > 0 {
		s.Transcript = &entity.Transcript{}
		if err := json.Unmarshal(transcript, s.Transcript); err != nil {
			return nil, fmt.Errorf("%w: decode session transcript: %v", entity.ErrData, err)
		}
	}

	return &s, nil
}

func (r *SessionPostgres) Set(ctx context.Context, s *entity.Session) error {
	history := s.History
	if history == nil {
		history = []string{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode session history: %w", err)
	}

	var transcriptJSON []byte
	if s.Transcript != nil {
		if transcriptJSON, err = json.Marshal(s.Transcript); err != nil {
			return fmt.Errorf("encode session transcript: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, upsertSessionQuery,
		s.ID, string(s.Mode), historyJSON, s.ThreadID, transcriptJSON, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

func (r *SessionPostgres) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, deleteSessionQuery, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions idle for longer than the configured ttl.
func (r *SessionPostgres) DeleteExpired(ctx context.Context) (int64, error) {
	cutoff := r.notBefore()
	if cutoff == nil {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, deleteExpiredQuery, *cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionPostgres) notBefore() *time.Time {
	if r.ttl <= 0 {
		return nil
	}
	t := time.Now().Add(-r.ttl)
	return &t
}
