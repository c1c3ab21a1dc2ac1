package domain

import "time"

// RefreshSession is the server-side record backing one refresh token.
// The token itself is opaque to the server once issued; only its hash is
// kept. A successful refresh revokes this record and creates a new one,
// so a rotated-away token can never be redeemed again.
type RefreshSession struct {
	ID         string    `bson:"_id,omitempty" redis:"id"`
	UserID     string    `bson:"user_id" redis:"user_id"`
	TokenHash  string    `bson:"token_hash" redis:"token_hash"`
	UserAgent  string    `bson:"user_agent,omitempty" redis:"user_agent"`
	IPAddress  string    `bson:"ip_address,omitempty" redis:"ip_address"`
	ExpiresAt  time.Time `bson:"expires_at" redis:"expires_at"`
	CreatedAt  time.Time `bson:"created_at" redis:"created_at"`
	LastUsedAt time.Time `bson:"last_used_at,omitempty" redis:"last_used_at"`
	IsRevoked  bool      `bson:"is_revoked,omitempty" redis:"is_revoked"`
}

// Usable reports whether the session may still redeem a refresh.
func (s *RefreshSession) Usable(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}
