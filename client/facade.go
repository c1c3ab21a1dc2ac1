package client

import (
	"context"
	"net/http"

	"github.com/preppulse/auth/api"
	serrors "github.com/preppulse/auth/errors"
)

// Login exchanges credentials for a session. On success the store holds
// the user snapshot and token pair and is authenticated; on failure the
// error is recorded on the store and returned, and any prior token
// fields are left unchanged.
func (c *Client) Login(ctx context.Context, email, password string) (*api.User, error) {
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)

	var out api.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", api.LoginRequest{Email: email, Password: password}, &out); err != nil {
		c.store.SetLastError(err)

		return nil, err
	}

	c.store.SetTokens(out.AccessToken, out.RefreshToken)
	c.store.SetUser(out.User)
	c.store.SetLastError(nil)

	return out.User, nil
}

// Register creates an account and, like login, yields an authenticated
// session immediately.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)

	var out api.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		c.store.SetLastError(err)

		return nil, err
	}

	c.store.SetTokens(out.AccessToken, out.RefreshToken)
	c.store.SetUser(out.User)
	c.store.SetLastError(nil)

	return out.User, nil
}

// Logout invalidates the session server-side on a best-effort basis and
// unconditionally resets the store. Safe to call when already anonymous.
func (c *Client) Logout(ctx context.Context) {
	if refresh := c.store.RefreshToken(); refresh != "" {
		if err := c.do(ctx, http.MethodPost, "/auth/logout", api.LogoutRequest{RefreshToken: refresh}, nil); err != nil {
			c.logger.Warn(ctx, "server logout failed, clearing local session anyway", map[string]interface{}{"error": err.Error()})
		}
	}

	c.store.Reset()
}

// FetchUser refreshes the user snapshot from the server. Without an
// access token it returns immediately; any fetch failure is treated as
// an invalid session and resets the store.
func (c *Client) FetchUser(ctx context.Context) (*api.User, error) {
	if c.store.AccessToken() == "" {
		c.store.SetUser(nil)

		return nil, serrors.ErrUnauthenticated
	}

	var out api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		c.store.Reset()

		return nil, err
	}

	c.store.SetUser(out.User)

	return out.User, nil
}

// UpdateProfile sends a partial profile update. On success the store's
// user snapshot is replaced wholesale with the server's representation;
// on failure the error is recorded and returned.
func (c *Client) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*api.User, error) {
	var out api.UserResponse
	if err := c.do(ctx, http.MethodPatch, "/users/profile", req, &out); err != nil {
		c.store.SetLastError(err)

		return nil, err
	}

	c.store.SetUser(out.User)
	c.store.SetLastError(nil)

	return out.User, nil
}
