// Package client is the Go SDK for the PrepPulse auth API. It wraps an
// http.Client with bearer-token injection and transparent refresh-and-retry,
// and exposes the session operations (login, register, logout, fetch-user,
// update-profile) on top of a session.Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	serrors "github.com/preppulse/auth/errors"
	"github.com/preppulse/auth/log"
	"github.com/preppulse/auth/session"
)

const refreshPath = "/auth/refresh"

// Client talks to the PrepPulse auth API on behalf of one session.
type Client struct {
	baseURL string
	store   *session.Store
	httpc   *http.Client
	logger  log.Logger

	onSessionExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is
// wrapped by the authorizer and refresher; its timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger replaces the default logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithSessionExpiredHandler installs a hook invoked after an
// unrecoverable refresh failure has reset the session. UIs typically
// navigate to their login entry point here.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New creates a Client bound to a session store.
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		logger:  log.NewZerologAdapter(zerolog.WarnLevel, false),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpc.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	// Layering matters: the refresher wraps the authorizer so a replayed
	// request picks up the rotated token from the store.
	authorizer := &authTransport{store: store, next: base}
	c.httpc = &http.Client{
		Timeout: c.httpc.Timeout,
		Transport: &refreshTransport{
			store:      store,
			next:       authorizer,
			refreshURL: c.baseURL + refreshPath,
			logger:     c.logger,
			onExpired:  c.expireSession,
		},
	}

	return c
}

// Store exposes the session store backing this client.
func (c *Client) Store() *session.Store {
	return c.store
}

func (c *Client) expireSession() {
	c.store.Reset()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// do performs one JSON request/response cycle against the API. Non-2xx
// responses become *errors.APIError carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}

// decodeAPIError turns an error response into an *errors.APIError,
// surfacing the server's message verbatim when present.
func decodeAPIError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	// A missing or unreadable message falls back to the generic string.
	_ = json.NewDecoder(resp.Body).Decode(&body)

	return serrors.NewAPIError(resp.StatusCode, body.Message)
}
