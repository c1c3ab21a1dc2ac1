package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppulse/auth/api"
)

func TestFileStorage_MissingFile(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "session.yaml"))

	_, found, err := storage.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	storage := NewFileStorage(path)

	verified := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	saved := Session{
		User: &api.User{
			ID:              "u1",
			Email:           "asha@example.com",
			FullName:        "Asha Verma",
			Role:            "STUDENT",
			ExamTrack:       "NEET",
			Tier:            "PREMIUM",
			TargetYear:      2027,
			EmailVerifiedAt: &verified,
			CreatedAt:       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		AccessToken:   "access-token",
		RefreshToken:  "refresh-token",
		Authenticated: true,
	}
	require.NoError(t, storage.Save(saved))

	restored, found, err := storage.Load()
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, saved.AccessToken, restored.AccessToken)
	assert.Equal(t, saved.RefreshToken, restored.RefreshToken)
	assert.True(t, restored.Authenticated)
	require.NotNil(t, restored.User)
	assert.Equal(t, "Asha Verma", restored.User.FullName)
	assert.Equal(t, "NEET", restored.User.ExamTrack)
	assert.Equal(t, 2027, restored.User.TargetYear)
	require.NotNil(t, restored.User.EmailVerifiedAt)
	assert.True(t, verified.Equal(*restored.User.EmailVerifiedAt))
}

func TestFileStorage_OverwriteWithEmptyRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	storage := NewFileStorage(path)

	require.NoError(t, storage.Save(Session{
		User:          &api.User{ID: "u1"},
		AccessToken:   "a",
		RefreshToken:  "r",
		Authenticated: true,
	}))
	require.NoError(t, storage.Save(Session{}))

	restored, found, err := storage.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Session{}, restored)
}
