// Package memrepo provides in-memory repository implementations used by
// tests and single-node development setups.
package memrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/preppulse/auth/domain"
	serrors "github.com/preppulse/auth/errors"
)

// UserRepository is a mutex-guarded in-memory domain.UserRepository.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser implements domain.UserRepository.
func (r *UserRepository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[emailKey(user.Email)]; exists {
		return serrors.ErrEmailTaken
	}

	clone := *user
	r.byID[user.ID] = &clone
	r.byEmail[emailKey(user.Email)] = user.ID

	return nil
}

// GetUserByID implements domain.UserRepository.
func (r *UserRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, serrors.ErrUserNotFound
	}

	clone := *user

	return &clone, nil
}

// GetUserByEmail implements domain.UserRepository.
func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, serrors.ErrUserNotFound
	}

	clone := *r.byID[id]

	return &clone, nil
}

// UpdateUser implements domain.UserRepository.
func (r *UserRepository) UpdateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return serrors.ErrUserNotFound
	}

	if emailKey(existing.Email) != emailKey(user.Email) {
		delete(r.byEmail, emailKey(existing.Email))
		r.byEmail[emailKey(user.Email)] = user.ID
	}

	clone := *user
	r.byID[user.ID] = &clone

	return nil
}

// DeleteUser implements domain.UserRepository.
func (r *UserRepository) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return serrors.ErrUserNotFound
	}

	delete(r.byEmail, emailKey(user.Email))
	delete(r.byID, id)

	return nil
}

var _ domain.UserRepository = (*UserRepository)(nil)
