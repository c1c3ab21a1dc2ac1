package session

import (
	"context"
	"sync"

	"github.com/preppulse/auth/api"
	"github.com/preppulse/auth/log"
)

// Store is the single source of truth for the client session. It is
// constructor-injected into whatever needs session access; there is no
// package-level instance.
//
// Every mutation runs through one choke point that persists the
// whitelisted Session fields. Persistence is best-effort: a failing
// Storage is logged at warn and the in-memory session keeps working.
type Store struct {
	mu      sync.RWMutex
	session Session

	// Transient, never persisted.
	loading bool
	lastErr error

	storage Storage
	logger  log.Logger
}

// NewStore creates a Store hydrated from storage. A fresh or unreadable
// storage yields an anonymous session.
func NewStore(storage Storage, logger log.Logger) *Store {
	s := &Store{storage: storage, logger: logger}

	restored, ok, err := storage.Load()
	if err != nil {
		logger.Warn(context.Background(), "failed to restore session, starting anonymous", map[string]interface{}{"error": err.Error()})

		return s
	}
	if ok {
		s.session = restored
	}

	return s
}

// Snapshot returns the current session. No side effects.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session
}

// AccessToken returns the current access token, empty when anonymous.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.AccessToken
}

// RefreshToken returns the current refresh token, empty when anonymous.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.RefreshToken
}

// SetTokens replaces both token fields in one step. The user snapshot is
// untouched. Rotation is atomic: no reader can observe the new access
// token next to the old refresh token.
func (s *Store) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.AccessToken = access
	s.session.RefreshToken = refresh
	s.persistLocked()
}

// SetUser replaces the user snapshot wholesale. Authenticated follows
// the snapshot: true iff the user is non-nil.
func (s *Store) SetUser(user *api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.User = user
	s.session.Authenticated = user != nil
	s.persistLocked()
}

// Reset restores the initial empty state. Used by logout and by
// unrecoverable refresh failures.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}
	s.lastErr = nil
	s.persistLocked()
}

// SetLoading flips the transient loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = loading
}

// Loading reports whether a session operation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// SetLastError records the most recent operation error for reactive consumers.
func (s *Store) SetLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
}

// LastError returns the most recent operation error, nil when the last
// operation succeeded.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

// persistLocked writes the whitelisted session fields to storage.
// Callers must hold the write lock.
func (s *Store) persistLocked() {
	if err := s.storage.Save(s.session); err != nil {
		s.logger.Warn(context.Background(), "failed to persist session, continuing in memory", map[string]interface{}{"error": err.Error()})
	}
}
