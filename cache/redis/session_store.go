// Package redis provides a Redis-backed refresh-session store for
// multi-instance deployments of the auth service.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/preppulse/auth/cache"
	"github.com/preppulse/auth/domain"
)

// SessionStore implements cache.SessionStore using Redis hashes.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a new [SessionStore]. The prefix namespaces
// keys when the Redis instance is shared.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

func (r *SessionStore) key(tokenHash string) string {
	return fmt.Sprintf("%s:refresh_session:%s", r.prefix, tokenHash)
}

// Save stores a session keyed by its token hash and lets Redis expire it
// together with the refresh token.
func (r *SessionStore) Save(ctx context.Context, session *domain.RefreshSession) error {
	key := r.key(session.TokenHash)

	entry := map[string]interface{}{
		"id":           session.ID,
		"user_id":      session.UserID,
		"token_hash":   session.TokenHash,
		"user_agent":   session.UserAgent,
		"ip_address":   session.IPAddress,
		"expires_at":   session.ExpiresAt.Unix(),
		"created_at":   session.CreatedAt.Unix(),
		"last_used_at": time.Now().UTC().Unix(),
		"is_revoked":   session.IsRevoked,
	}

	if _, err := r.client.HSet(ctx, key, entry).Result(); err != nil {
		return fmt.Errorf("failed to store refresh session in redis: %w", err)
	}

	if _, err := r.client.Expire(ctx, key, time.Until(session.ExpiresAt)).Result(); err != nil {
		return fmt.Errorf("failed to set refresh session expiry: %w", err)
	}

	return nil
}

// Get retrieves the session for a raw refresh token.
func (r *SessionStore) Get(ctx context.Context, token string) (*domain.RefreshSession, error) {
	key := r.key(cache.HashToken(token))

	res, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh session from redis: %w", err)
	}
	if len(res) == 0 {
		return nil, cache.ErrSessionNotFound
	}

	expiresAt, err := strconv.ParseInt(res["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed expires_at in refresh session: %w", err)
	}
	createdAt, _ := strconv.ParseInt(res["created_at"], 10, 64)
	lastUsedAt, _ := strconv.ParseInt(res["last_used_at"], 10, 64)
	revoked, _ := strconv.ParseBool(res["is_revoked"])

	session := &domain.RefreshSession{
		ID:         res["id"],
		UserID:     res["user_id"],
		TokenHash:  res["token_hash"],
		UserAgent:  res["user_agent"],
		IPAddress:  res["ip_address"],
		ExpiresAt:  time.Unix(expiresAt, 0),
		CreatedAt:  time.Unix(createdAt, 0),
		LastUsedAt: time.Unix(lastUsedAt, 0),
		IsRevoked:  revoked,
	}

	// Touch last_used_at, but never fail the read over it.
	r.client.HSet(ctx, key, "last_used_at", time.Now().UTC().Unix())

	return session, nil
}

// Delete removes the session for a raw refresh token.
func (r *SessionStore) Delete(ctx context.Context, token string) error {
	if _, err := r.client.Del(ctx, r.key(cache.HashToken(token))).Result(); err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}

	return nil
}

// DeleteExpired is a no-op: Redis expires keys on its own.
func (r *SessionStore) DeleteExpired(_ context.Context) error {
	return nil
}

// Clear removes every session under this store's prefix.
func (r *SessionStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.key("*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear refresh sessions: %w", err)
		}
	}

	return iter.Err()
}

// Count returns the number of sessions under this store's prefix.
func (r *SessionStore) Count(ctx context.Context) int {
	var count int
	iter := r.client.Scan(ctx, 0, r.key("*"), 0).Iterator()
	for iter.Next(ctx) {
		count++
	}

	return count
}

var _ cache.SessionStore = (*SessionStore)(nil)
