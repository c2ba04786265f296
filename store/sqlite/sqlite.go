// Package sqlite implements hebrew.SessionStore on pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultMaxTurns = 50
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store.
// If not set, no logs are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithTTL sets how long a session may stay idle before Prune removes it.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.ttl = d }
}

// WithMaxTurns caps the messages kept per session. Older ones are dropped
// on Append.
func WithMaxTurns(n int) StoreOption {
	return func(s *Store) { s.maxTurns = n }
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store keeps chat sessions in a local SQLite file.
type Store struct {
	db       *sql.DB
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
	logger   *slog.Logger
}

var _ hebrew.SessionStore = (*Store)(nil)

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }

// New creates a Store using a local SQLite file at dbPath.
// All goroutines share one connection, so writers never see SQLITE_BUSY.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{
		db:       db,
		ttl:      DefaultTTL,
		maxTurns: DefaultMaxTurns,
		now:      time.Now,
		logger:   nopLogger,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Init creates the messages table. Safe to call more than once.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_session_idx ON messages(session_id, created_at)`,
	}
	for _, ddl := range stmts {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	s.logger.Debug("sqlite: init ok")
	return nil
}

// Append stores one message and trims the session to the turn cap.
func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	start := time.Now()
	id := hebrew.NewID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sessionID, role, content, s.now().UnixMilli(),
	)
	if err != nil {
		s.logger.Error("sqlite: append failed", "session_id", sessionID, "error", err)
		return fmt.Errorf("append message: %w", err)
	}

	if s.maxTurns > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM messages
			 WHERE session_id = ? AND id NOT IN (
				SELECT id FROM messages WHERE session_id = ?
				ORDER BY created_at DESC, id DESC LIMIT ?
			 )`,
			sessionID, sessionID, s.maxTurns,
		)
		if err != nil {
			return fmt.Errorf("trim session: %w", err)
		}
	}
	s.logger.Debug("sqlite: append ok", "session_id", sessionID, "role", role, "duration", time.Since(start))
	return nil
}

// History returns the session's messages, oldest first. An unknown session
// has an empty history.
func (s *Store) History(ctx context.Context, sessionID string) ([]hebrew.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var messages []hebrew.Message
	for rows.Next() {
		var m hebrew.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// Prune deletes every session whose newest message is older than now
// minus the TTL.
func (s *Store) Prune(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id IN (
			SELECT session_id FROM messages
			GROUP BY session_id
			HAVING MAX(created_at) < ?
		)`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("sqlite: pruned idle sessions", "messages", n)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
