// Package api holds the wire-level request and response shapes of the
// PrepPulse auth API, shared by the server handlers and the client SDK.
package api

import (
	"time"

	"github.com/preppulse/auth/domain"
)

// User is the public snapshot of an account as returned by the API.
// It never carries credential material.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Role            string     `json:"role"`
	ExamTrack       string     `json:"exam_track,omitempty"`
	Tier            string     `json:"tier"`
	TargetYear      int        `json:"target_year,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UserFromDomain converts a domain user into its public wire representation.
func UserFromDomain(u *domain.User) *User {
	if u == nil {
		return nil
	}

	return &User{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Role:            string(u.Role),
		ExamTrack:       string(u.ExamTrack),
		Tier:            string(u.Tier),
		TargetYear:      u.TargetYear,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
	}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	ExamTrack  string `json:"exam_track,omitempty"`
	TargetYear int    `json:"target_year,omitempty"`
}

// TokenResponse is returned by login, register and refresh. Login and
// register include the user snapshot; refresh returns tokens only.
type TokenResponse struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the body of POST /auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse wraps the user snapshot returned by GET /auth/me and
// PATCH /users/profile.
type UserResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest is the body of PATCH /users/profile. Nil fields
// are left untouched; the response carries the server's authoritative
// representation after the update.
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	ExamTrack  *string `json:"exam_track,omitempty"`
	TargetYear *int    `json:"target_year,omitempty"`
}
