package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/preppulse/auth/api"
	serrors "github.com/preppulse/auth/errors"
	"github.com/preppulse/auth/log"
	"github.com/preppulse/auth/session"
)

// refreshTransport recovers from expired access tokens transparently.
// On a 401 it redeems the refresh token, rotates the pair in the store
// and replays the original request exactly once. Concurrent 401s share
// a single refresh call through a singleflight group; without it every
// simultaneous 401 would race its own refresh and all but the first
// rotation would redeem an already-revoked token.
var passthroughPaths = []string{refreshPath, "/auth/login", "/auth/register", "/auth/logout"}

type refreshTransport struct {
	store      *session.Store
	next       http.RoundTripper
	refreshURL string
	logger     log.Logger
	onExpired  func()

	group singleflight.Group
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Credential endpoints answer 401 for bad credentials, not for an
	// expired access token. Intercepting those would mask the real error
	// and, on the refresh endpoint itself, loop forever.
	for _, p := range passthroughPaths {
		if strings.HasSuffix(req.URL.Path, p) {
			return resp, nil
		}
	}

	// No refresh token, nothing to recover with: propagate the 401.
	if t.store.RefreshToken() == "" {
		return resp, nil
	}

	if _, rerr, _ := t.group.Do("refresh", func() (interface{}, error) {
		return nil, t.refresh(req.Context())
	}); rerr != nil {
		t.logger.Warn(req.Context(), "token refresh failed, session reset", map[string]interface{}{"error": rerr.Error()})
		t.onExpired()

		return resp, nil
	}

	// Replay once with the rotated token. The replay goes through the
	// authorizer but not through this interceptor again, so a second
	// 401 propagates to the caller.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, fmt.Errorf("failed to rewind request body for retry: %w", berr)
		}
		retry.Body = body
	}

	return t.next.RoundTrip(retry)
}

// refresh redeems the current refresh token and commits the new pair to
// the store. The token is re-read inside the singleflight callback so a
// caller arriving after a completed rotation redeems the new token, not
// a stale one.
func (t *refreshTransport) refresh(ctx context.Context) error {
	refreshToken := t.store.RefreshToken()
	if refreshToken == "" {
		return serrors.ErrSessionExpired
	}

	payload, err := json.Marshal(api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("refresh call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serrors.ErrSessionExpired
	}

	var tokens api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return serrors.ErrSessionExpired
	}

	// Both tokens rotate in one store mutation.
	t.store.SetTokens(tokens.AccessToken, tokens.RefreshToken)

	return nil
}

var _ http.RoundTripper = (*refreshTransport)(nil)
