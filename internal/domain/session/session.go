package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emedica/emedica-api/internal/domain"
)

// Session is the server-held record of an authenticated identity. Tokens
// reference it by ID; deleting it is what makes logout effective.
type Session struct {
	ID        string      `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store persists sessions for the lifetime of a login. Implementations must
// return ErrNotFound for absent IDs and ErrCorrupt when a stored payload
// cannot be decoded; callers treat both as "no session".
type Store interface {
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	// Delete is idempotent: deleting an absent session is a no-op.
	Delete(ctx context.Context, id string) error
}
