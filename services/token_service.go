package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/preppulse/auth/cache"
	"github.com/preppulse/auth/domain"
	serrors "github.com/preppulse/auth/errors"
)

// AccessClaims are the JWT claims carried by a PrepPulse access token.
type AccessClaims struct {
	Role string `json:"role"`
	Tier string `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

// TokenService mints and validates the access/refresh token pair.
// Access tokens are short-lived HS256 JWTs; refresh tokens are opaque
// random strings backed by a server-side session record.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   cache.SessionStore
}

// NewTokenService creates a new TokenService instance.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration, sessions cache.SessionStore) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		sessions:   sessions,
	}
}

// generateOpaqueToken creates a cryptographically secure random token string.
func generateOpaqueToken(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	_, _ = rand.Read(b)

	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}

	return string(b)
}

// IssuePair mints a new access/refresh pair for a user and records the
// refresh session. The raw refresh token is returned exactly once; only
// its hash is stored.
func (s *TokenService) IssuePair(ctx context.Context, user *domain.User, userAgent, ip string) (access, refresh string, err error) {
	now := time.Now().UTC()

	claims := AccessClaims{
		Role: string(user.Role),
		Tier: string(user.Tier),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh = generateOpaqueToken(48)
	session := &domain.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: cache.HashToken(refresh),
		UserAgent: userAgent,
		IPAddress: ip,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", "", fmt.Errorf("failed to store refresh session: %w", err)
	}

	return access, refresh, nil
}

// ValidateAccessToken parses and verifies an access token, returning its claims.
func (s *TokenService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !token.Valid {
		return nil, serrors.ErrUnauthenticated
	}

	return claims, nil
}

// Rotate redeems a refresh token: the old session is deleted before the
// new pair is issued, so the old token can never be redeemed twice.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string, user *domain.User, userAgent, ip string) (access, refresh string, err error) {
	session, err := s.sessions.Get(ctx, refreshToken)
	if err != nil || !session.Usable(time.Now().UTC()) {
		return "", "", serrors.ErrSessionExpired
	}

	if err := s.sessions.Delete(ctx, refreshToken); err != nil {
		return "", "", fmt.Errorf("failed to revoke refresh session: %w", err)
	}

	return s.IssuePair(ctx, user, userAgent, ip)
}

// SessionFor returns the live session record for a raw refresh token.
func (s *TokenService) SessionFor(ctx context.Context, refreshToken string) (*domain.RefreshSession, error) {
	session, err := s.sessions.Get(ctx, refreshToken)
	if err != nil {
		return nil, serrors.ErrSessionExpired
	}
	if !session.Usable(time.Now().UTC()) {
		return nil, serrors.ErrSessionExpired
	}

	return session, nil
}

// Revoke drops the session for a refresh token. Unknown tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	return s.sessions.Delete(ctx, refreshToken)
}
