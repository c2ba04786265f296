package hebrew

import (
	"context"
	"time"
)

// Chat roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat session.
type Message struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"` // unix milliseconds
}

// SessionStore persists chat history per session. Implementations cap the
// number of messages kept per session and expire idle sessions on Prune.
type SessionStore interface {
	Append(ctx context.Context, sessionID, role, content string) error
	// History returns the session's messages, oldest first.
	History(ctx context.Context, sessionID string) ([]Message, error)
	// Prune deletes sessions idle since before now minus the store TTL and
	// returns the number of messages removed.
	Prune(ctx context.Context, now time.Time) (int64, error)
	Close() error
}
