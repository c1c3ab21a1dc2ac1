package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/preppulse/auth/domain"
)

// MemorySessionStore implements SessionStore using ttlcache. Entries
// drop out automatically when the underlying refresh token expires.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, *domain.RefreshSession]
}

// NewMemorySessionStore creates an in-memory session store with automatic cleanup.
func NewMemorySessionStore() *MemorySessionStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.RefreshSession](),
	)

	go cache.Start()

	return &MemorySessionStore{cache: cache}
}

// Save implements SessionStore.Save. The entry's TTL is derived from the
// session expiry, so a lookup past that point misses.
func (s *MemorySessionStore) Save(_ context.Context, session *domain.RefreshSession) error {
	s.cache.Set(session.TokenHash, session, time.Until(session.ExpiresAt))

	return nil
}

// Get implements SessionStore.Get.
func (s *MemorySessionStore) Get(_ context.Context, token string) (*domain.RefreshSession, error) {
	item := s.cache.Get(HashToken(token))
	if item == nil {
		return nil, ErrSessionNotFound
	}

	session := item.Value()
	session.LastUsedAt = time.Now().UTC()

	return session, nil
}

// Delete removes the session for a raw refresh token.
func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.cache.Delete(HashToken(token))

	return nil
}

// DeleteExpired removes all expired sessions.
func (s *MemorySessionStore) DeleteExpired(_ context.Context) error {
	s.cache.DeleteExpired()

	return nil
}

// Clear removes every session from the store.
func (s *MemorySessionStore) Clear(_ context.Context) error {
	s.cache.DeleteAll()

	return nil
}

// Count returns the number of live sessions.
func (s *MemorySessionStore) Count(_ context.Context) int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() error {
	s.cache.Stop()

	return nil
}
