package domain

import "time"

// UserRole defines the authorization role of an account.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleMentor  UserRole = "MENTOR"
	RoleAdmin   UserRole = "ADMIN"
)

// ExamTrack is the entrance exam a student is preparing for.
type ExamTrack string

const (
	TrackNEET ExamTrack = "NEET"
	TrackJEE  ExamTrack = "JEE"
)

// SubscriptionTier is the billing tier of an account.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierPremium SubscriptionTier = "PREMIUM"
)

// UserStatus defines the possible statuses of a user account.
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

// User represents a PrepPulse account.
type User struct {
	ID              string           `bson:"_id,omitempty"`
	Email           string           `bson:"email"`
	PasswordHash    string           `bson:"password_hash"`
	FullName        string           `bson:"full_name"`
	Role            UserRole         `bson:"role"`
	ExamTrack       ExamTrack        `bson:"exam_track,omitempty"`
	Tier            SubscriptionTier `bson:"tier"`
	TargetYear      int              `bson:"target_year,omitempty"`
	Status          UserStatus       `bson:"status"`
	EmailVerifiedAt *time.Time       `bson:"email_verified_at,omitempty"`
	CreatedAt       time.Time        `bson:"created_at"`
	UpdatedAt       time.Time        `bson:"updated_at"`
	LastLoginAt     *time.Time       `bson:"last_login_at,omitempty"`
}
