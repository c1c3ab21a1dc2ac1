package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppulse/auth/api"
	serrors "github.com/preppulse/auth/errors"
	"github.com/preppulse/auth/log"
	"github.com/preppulse/auth/session"
)

func testLogger() log.Logger {
	return log.NewZerologAdapter(zerolog.Disabled, false)
}

func newSeededStore(t *testing.T, access, refresh string) *session.Store {
	t.Helper()

	store := session.NewStore(session.NewMemoryStorage(), testLogger())
	if access != "" || refresh != "" {
		store.SetTokens(access, refresh)
		store.SetUser(&api.User{ID: "u-1", Email: "asha@example.com"})
	}

	return store
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid or expired token"})
}

func TestClient_LoginPopulatesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)

		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "asha@example.com", req.Email)

		writeJSON(w, http.StatusOK, api.TokenResponse{
			User:         &api.User{ID: "u-1", Email: req.Email, Role: "STUDENT"},
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
		})
	}))
	defer srv.Close()

	store := newSeededStore(t, "", "")
	c := New(srv.URL, store, WithLogger(testLogger()))

	user, err := c.Login(context.Background(), "asha@example.com", "sunrise-2027")
	require.NoError(t, err)
	require.NotNil(t, user)

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "access-1", snap.AccessToken)
	assert.Equal(t, "refresh-1", snap.RefreshToken)
	require.NotNil(t, snap.User)
	assert.Equal(t, "u-1", snap.User.ID)
	assert.NoError(t, store.LastError())
	assert.False(t, store.Loading())
}

func TestClient_LoginFailureKeepsExistingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid email or password"})
	}))
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	_, err := c.Login(context.Background(), "asha@example.com", "wrong")
	require.Error(t, err)

	var apiErr *serrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid email or password", apiErr.Message)

	// A failed login records the error but does not disturb the session.
	snap := store.Snapshot()
	assert.Equal(t, "old-A", snap.AccessToken)
	assert.Equal(t, "old-R", snap.RefreshToken)
	assert.True(t, snap.Authenticated)
	assert.ErrorIs(t, store.LastError(), err)
}

func TestClient_LogoutWhenAnonymous(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := newSeededStore(t, "", "")
	c := New(srv.URL, store, WithLogger(testLogger()))

	c.Logout(context.Background())

	// No refresh token means no server call, just a local reset.
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, store.Snapshot().Authenticated)
}

func TestClient_LogoutResetsEvenWhenServerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	}))
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	c.Logout(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, snap.AccessToken)
	assert.Empty(t, snap.RefreshToken)
	assert.Nil(t, snap.User)
}

func TestClient_RefreshAndReplayOn401(t *testing.T) {
	var refreshCalls int32
	var replayAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-A" {
			unauthorized(w)

			return
		}
		replayAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, api.UserResponse{User: &api.User{ID: "u-1", Email: "asha@example.com"}})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)

		var req api.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "old-R", req.RefreshToken)

		writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: "new-A", RefreshToken: "new-R"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	// The caller never sees the underlying 401.
	user, err := c.FetchUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "Bearer new-A", replayAuth)

	snap := store.Snapshot()
	assert.Equal(t, "new-A", snap.AccessToken)
	assert.Equal(t, "new-R", snap.RefreshToken)
	assert.True(t, snap.Authenticated)
}

func TestClient_RetryHappensExactlyOnce(t *testing.T) {
	var refreshCalls, meCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&meCalls, 1)
		// Still unauthorized after refresh; the second 401 must surface.
		unauthorized(w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: "new-A", RefreshToken: "new-R"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	_, err := c.FetchUser(context.Background())
	require.Error(t, err)

	var apiErr *serrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls))
}

func TestClient_RefreshFailureExpiresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		unauthorized(w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "session expired"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var expired int32
	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store,
		WithLogger(testLogger()),
		WithSessionExpiredHandler(func() { atomic.AddInt32(&expired, 1) }),
	)

	// FetchUser sees the original 401 and additionally resets the store.
	_, err := c.FetchUser(context.Background())
	require.Error(t, err)

	var apiErr *serrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Equal(t, int32(1), atomic.LoadInt32(&expired))
	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, snap.AccessToken)
	assert.Empty(t, snap.RefreshToken)
}

func TestClient_NoRefreshTokenPropagates401(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, _ *http.Request) {
		unauthorized(w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: "new-A", RefreshToken: "new-R"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewStore(session.NewMemoryStorage(), testLogger())
	store.SetTokens("stale-A", "")
	c := New(srv.URL, store, WithLogger(testLogger()))

	name := "Asha"
	_, err := c.UpdateProfile(context.Background(), api.UpdateProfileRequest{FullName: &name})
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
}

func TestClient_ConcurrentRefreshIsSingleFlight(t *testing.T) {
	const workers = 5

	var oldTokenRedemptions int32
	var unauthorizedHits int32
	allBlocked := make(chan struct{})
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer new-A" {
			writeJSON(w, http.StatusOK, api.UserResponse{User: &api.User{ID: "u-1"}})

			return
		}
		if atomic.AddInt32(&unauthorizedHits, 1) == workers {
			once.Do(func() { close(allBlocked) })
		}
		unauthorized(w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		// Hold the rotation until every worker has taken its 401, so all
		// of them join the same in-flight refresh.
		<-allBlocked

		var req api.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// A second redemption of the revoked token would fail against a
		// real server; count it so the test catches a racing refresh.
		if req.RefreshToken == "old-R" {
			atomic.AddInt32(&oldTokenRedemptions, 1)
		}
		writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: "new-A", RefreshToken: "new-R"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.FetchUser(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&oldTokenRedemptions))
	assert.Equal(t, "new-A", store.Snapshot().AccessToken)
}

func TestClient_FetchUserWithoutTokenSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newSeededStore(t, "", "")
	c := New(srv.URL, store, WithLogger(testLogger()))

	_, err := c.FetchUser(context.Background())
	assert.ErrorIs(t, err, serrors.ErrUnauthenticated)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_FetchUserFailureResetsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "storage down"})
	}))
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	_, err := c.FetchUser(context.Background())
	require.Error(t, err)

	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, snap.AccessToken)
	assert.Nil(t, snap.User)
}

func TestClient_UpdateProfileReplacesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/users/profile", r.URL.Path)
		require.Equal(t, "Bearer old-A", r.Header.Get("Authorization"))

		writeJSON(w, http.StatusOK, api.UserResponse{
			User: &api.User{ID: "u-1", Email: "asha@example.com", FullName: "Asha V.", ExamTrack: "JEE"},
		})
	}))
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	name := "Asha V."
	track := "JEE"
	user, err := c.UpdateProfile(context.Background(), api.UpdateProfileRequest{FullName: &name, ExamTrack: &track})
	require.NoError(t, err)
	assert.Equal(t, "Asha V.", user.FullName)

	snap := store.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "Asha V.", snap.User.FullName)
	assert.Equal(t, "JEE", snap.User.ExamTrack)
}

func TestClient_RefreshEndpointIsNeverIntercepted(t *testing.T) {
	// A 401 from the refresh endpoint itself must not trigger another
	// refresh attempt; otherwise a dead session would loop forever.
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		unauthorized(w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		unauthorized(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newSeededStore(t, "old-A", "old-R")
	c := New(srv.URL, store, WithLogger(testLogger()))

	_, err := c.FetchUser(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}
