// Package session holds the client-side session state: the current
// user snapshot and access/refresh token pair, with best-effort durable
// persistence across process restarts.
package session

import "github.com/preppulse/auth/api"

// Session is a point-in-time snapshot of the client session. Exactly the
// fields below are persisted; transient status (loading flag, last error)
// lives on the Store and never reaches storage.
type Session struct {
	User          *api.User `mapstructure:"user" json:"user"`
	AccessToken   string    `mapstructure:"access_token" json:"access_token"`
	RefreshToken  string    `mapstructure:"refresh_token" json:"refresh_token"`
	Authenticated bool      `mapstructure:"authenticated" json:"authenticated"`
}
