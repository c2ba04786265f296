package hebrew

import (
	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562).
// Used for generated document and chat session identifiers.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
