package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewBcryptPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, hasher.Verify(hash, "correct horse battery staple"))
	assert.ErrorIs(t, hasher.Verify(hash, "wrong password"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestNewBcryptPasswordHasher_DefaultCost(t *testing.T) {
	hasher := NewBcryptPasswordHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, hasher.Cost)
}
