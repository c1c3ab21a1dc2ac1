package echo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/preppulse/auth/api"
	"github.com/preppulse/auth/cache"
	"github.com/preppulse/auth/internal/memrepo"
	"github.com/preppulse/auth/log"
	"github.com/preppulse/auth/middleware"
	"github.com/preppulse/auth/services"
)

type bcryptHasher struct{ cost int }

func (h bcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)

	return string(b), err
}

func (h bcryptHasher) Verify(hashed, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
}

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()

	sessions := cache.NewMemorySessionStore()
	t.Cleanup(func() { _ = sessions.Close() })

	tokens := services.NewTokenService("test-secret", "preppulse-test", 15*time.Minute, time.Hour, sessions)
	logger := log.NewZerologAdapter(zerolog.Disabled, false)
	auth := services.NewAuthService(memrepo.NewUserRepository(), bcryptHasher{cost: bcrypt.MinCost}, tokens, logger)

	e := echo.New()
	NewAuthAPI(auth, middleware.NewAuthenticator(tokens)).RegisterRoutes(e)

	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decodeTokens(t *testing.T, rec *httptest.ResponseRecorder) api.TokenResponse {
	t.Helper()

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body.Message
}

func registerAccount(t *testing.T, e *echo.Echo) api.TokenResponse {
	t.Helper()

	rec := doJSON(t, e, http.MethodPost, "/auth/register", "", api.RegisterRequest{
		Email:      "asha@example.com",
		Password:   "sunrise-2027",
		FullName:   "Asha Verma",
		ExamTrack:  "NEET",
		TargetYear: 2027,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return decodeTokens(t, rec)
}

func TestAPI_RegisterLoginMeFlow(t *testing.T) {
	e := newTestAPI(t)

	reg := registerAccount(t, e)
	require.NotNil(t, reg.User)
	assert.Equal(t, "STUDENT", reg.User.Role)

	rec := doJSON(t, e, http.MethodPost, "/auth/login", "", api.LoginRequest{
		Email:    "asha@example.com",
		Password: "sunrise-2027",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeTokens(t, rec)
	require.NotEmpty(t, login.AccessToken)

	rec = doJSON(t, e, http.MethodGet, "/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me api.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.NotNil(t, me.User)
	assert.Equal(t, "asha@example.com", me.User.Email)
}

func TestAPI_RegisterDuplicateEmailConflicts(t *testing.T) {
	e := newTestAPI(t)
	registerAccount(t, e)

	rec := doJSON(t, e, http.MethodPost, "/auth/register", "", api.RegisterRequest{
		Email:    "asha@example.com",
		Password: "other",
		FullName: "Someone Else",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}

func TestAPI_LoginBadCredentials(t *testing.T) {
	e := newTestAPI(t)
	registerAccount(t, e)

	rec := doJSON(t, e, http.MethodPost, "/auth/login", "", api.LoginRequest{
		Email:    "asha@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}

func TestAPI_RefreshRotatesAndRevokes(t *testing.T) {
	e := newTestAPI(t)
	reg := registerAccount(t, e)

	rec := doJSON(t, e, http.MethodPost, "/auth/refresh", "", api.RefreshRequest{RefreshToken: reg.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodeTokens(t, rec)
	assert.Nil(t, rotated.User)
	assert.NotEqual(t, reg.RefreshToken, rotated.RefreshToken)

	// The new access token works.
	rec = doJSON(t, e, http.MethodGet, "/auth/me", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The redeemed refresh token is dead.
	rec = doJSON(t, e, http.MethodPost, "/auth/refresh", "", api.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}

func TestAPI_RefreshRequiresToken(t *testing.T) {
	e := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/auth/refresh", "", api.RefreshRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_LogoutRevokesSession(t *testing.T) {
	e := newTestAPI(t)
	reg := registerAccount(t, e)

	rec := doJSON(t, e, http.MethodPost, "/auth/logout", "", api.LogoutRequest{RefreshToken: reg.RefreshToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Logout is idempotent.
	rec = doJSON(t, e, http.MethodPost, "/auth/logout", "", api.LogoutRequest{RefreshToken: reg.RefreshToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/auth/refresh", "", api.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_MeWithoutTokenIsUnauthorized(t *testing.T) {
	e := newTestAPI(t)

	rec := doJSON(t, e, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}

func TestAPI_UpdateProfile(t *testing.T) {
	e := newTestAPI(t)
	reg := registerAccount(t, e)

	name := "Asha V."
	track := "JEE"
	rec := doJSON(t, e, http.MethodPatch, "/users/profile", reg.AccessToken, api.UpdateProfileRequest{
		FullName:  &name,
		ExamTrack: &track,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.User)
	assert.Equal(t, "Asha V.", resp.User.FullName)
	assert.Equal(t, "JEE", resp.User.ExamTrack)
}

func TestAPI_UpdateProfileRejectsUnknownTrack(t *testing.T) {
	e := newTestAPI(t)
	reg := registerAccount(t, e)

	track := "SAT"
	rec := doJSON(t, e, http.MethodPatch, "/users/profile", reg.AccessToken, api.UpdateProfileRequest{ExamTrack: &track})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}
