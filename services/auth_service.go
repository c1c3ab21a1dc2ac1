package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/preppulse/auth/api"
	"github.com/preppulse/auth/domain"
	serrors "github.com/preppulse/auth/errors"
	"github.com/preppulse/auth/log"
)

// AuthService implements the account flows behind the auth API:
// register, login, refresh, logout, current-user and profile update.
type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	tokens *TokenService
	logger log.Logger
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens *TokenService, logger log.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new student account and immediately issues an
// authenticated session for it. No separate email-confirmation gate
// exists at the session layer.
func (s *AuthService) Register(ctx context.Context, req api.RegisterRequest, userAgent, ip string) (*api.TokenResponse, error) {
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, serrors.NewAPIError(400, "email, password and full_name are required")
	}

	if existing, err := s.users.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, serrors.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         domain.RoleStudent,
		ExamTrack:    domain.ExamTrack(req.ExamTrack),
		Tier:         domain.TierFree,
		TargetYear:   req.TargetYear,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info(ctx, "user registered", map[string]interface{}{"user_id": user.ID, "exam_track": user.ExamTrack})

	return s.issueResponse(ctx, user, userAgent, ip)
}

// Login verifies credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ip string) (*api.TokenResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Indistinguishable from a bad password on purpose.
		return nil, serrors.ErrInvalidCredentials
	}
	if user.Status == domain.UserStatusLocked {
		return nil, serrors.NewAPIError(403, "account is locked")
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, serrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Warn(ctx, "failed to record last login", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
	}

	s.logger.Info(ctx, "user logged in", map[string]interface{}{"user_id": user.ID})

	return s.issueResponse(ctx, user, userAgent, ip)
}

// Refresh rotates a refresh token into a new access/refresh pair.
// The redeemed token is revoked before the new pair is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userAgent, ip string) (*api.TokenResponse, error) {
	session, err := s.tokens.SessionFor(ctx, refreshToken)
	if err != nil {
		return nil, serrors.ErrSessionExpired
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, serrors.ErrSessionExpired
	}

	access, refresh, err := s.tokens.Rotate(ctx, refreshToken, user, userAgent, ip)
	if err != nil {
		if errors.Is(err, serrors.ErrSessionExpired) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return &api.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the session behind a refresh token. Unknown or already
// revoked tokens succeed, logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// CurrentUser returns the public snapshot for an authenticated user ID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*api.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, serrors.ErrUserNotFound
	}

	return api.UserFromDomain(user), nil
}

// UpdateProfile applies a partial profile update and returns the server's
// authoritative representation. Nil fields are left untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req api.UpdateProfileRequest) (*api.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, serrors.ErrUserNotFound
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.ExamTrack != nil {
		track := domain.ExamTrack(*req.ExamTrack)
		if track != domain.TrackNEET && track != domain.TrackJEE {
			return nil, serrors.NewAPIError(400, fmt.Sprintf("unknown exam track %q", *req.ExamTrack))
		}
		user.ExamTrack = track
	}
	if req.TargetYear != nil {
		user.TargetYear = *req.TargetYear
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return api.UserFromDomain(user), nil
}

func (s *AuthService) issueResponse(ctx context.Context, user *domain.User, userAgent, ip string) (*api.TokenResponse, error) {
	access, refresh, err := s.tokens.IssuePair(ctx, user, userAgent, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return &api.TokenResponse{
		User:         api.UserFromDomain(user),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
