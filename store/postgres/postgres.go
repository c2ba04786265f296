// Package postgres implements hebrew.SessionStore on PostgreSQL.
//
// Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates the pool; Close releases it.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// Option configures a PostgreSQL Store.
type Option func(*Store)

// WithTTL sets how long a session may stay idle before Prune removes it.
// Default 24h.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithMaxTurns caps the messages kept per session. Default 50.
func WithMaxTurns(n int) Option {
	return func(s *Store) { s.maxTurns = n }
}

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store keeps chat sessions in PostgreSQL.
type Store struct {
	pool     *pgxpool.Pool
	ttl      time.Duration
	maxTurns int
	logger   *slog.Logger
}

var _ hebrew.SessionStore = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, ttl: 24 * time.Hour, maxTurns: 50, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect parses dsn, opens a pool and returns a Store that owns it.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return New(pool, opts...), nil
}

// Init creates the messages table and its index. Safe to call multiple
// times.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS session_messages_session_idx ON session_messages(session_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	return nil
}

// Append stores one message and trims the session to the turn cap in the
// same transaction.
func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO session_messages (id, session_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		hebrew.NewID(), sessionID, role, content, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("postgres: append message: %w", err)
	}
	if s.maxTurns > 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM session_messages
			 WHERE session_id = $1 AND id NOT IN (
				SELECT id FROM session_messages WHERE session_id = $1
				ORDER BY created_at DESC, id DESC LIMIT $2
			 )`,
			sessionID, s.maxTurns)
		if err != nil {
			return fmt.Errorf("postgres: trim session: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// History returns the session's messages, oldest first.
func (s *Store) History(ctx context.Context, sessionID string) ([]hebrew.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM session_messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get history: %w", err)
	}
	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hebrew.Message, error) {
		var m hebrew.Message
		err := row.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan history: %w", err)
	}
	return messages, nil
}

// Prune deletes every session whose newest message is older than now
// minus the TTL.
func (s *Store) Prune(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM session_messages WHERE session_id IN (
			SELECT session_id FROM session_messages
			GROUP BY session_id
			HAVING MAX(created_at) < $1
		)`,
		now.Add(-s.ttl).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("postgres: prune sessions: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Info("postgres: pruned idle sessions", "messages", n)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }
