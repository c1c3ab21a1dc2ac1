package client

import (
	"net/http"

	"github.com/preppulse/auth/session"
)

// authTransport attaches the current access token to every outgoing
// request. The token is read from the store at send time, never from a
// closure, so a replay after rotation carries the fresh token.
type authTransport struct {
	store *session.Store
	next  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.store.AccessToken(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return t.next.RoundTrip(req)
}

var _ http.RoundTripper = (*authTransport)(nil)
