package cache

import (
	"context"
	"errors"

	"github.com/preppulse/auth/domain"
)

// ErrSessionNotFound is returned when no session exists for a token.
var ErrSessionNotFound = errors.New("refresh session not found")

// SessionStore persists server-side refresh sessions, keyed by the
// SHA-256 hash of the refresh token. Entries expire with the token.
type SessionStore interface {
	Save(ctx context.Context, session *domain.RefreshSession) error
	// Get looks up the session for a raw refresh token. The token is
	// hashed before the lookup.
	Get(ctx context.Context, token string) (*domain.RefreshSession, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) int
}
