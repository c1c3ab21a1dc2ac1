package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared between the auth service and the client SDK.
var (
	// ErrInvalidCredentials is returned when login email/password verification fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUnauthenticated is returned when a request carries no valid access token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrSessionExpired is returned when a refresh token is invalid, rotated away or expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound is returned when a user lookup yields no document.
	ErrUserNotFound = errors.New("user not found")
)

// APIError is the wire-level error shape of the PrepPulse auth API.
// Every error response carries a human-readable message in a JSON body:
//
//	{"message": "invalid email or password"}
//
// The client SDK surfaces Message verbatim to its caller.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// GenericMessage is the fallback used when a server error body carries no message.
const GenericMessage = "something went wrong, please try again"

// NewAPIError builds an APIError, substituting the generic fallback for empty messages.
func NewAPIError(status int, message string) *APIError {
	if message == "" {
		message = GenericMessage
	}

	return &APIError{Status: status, Message: message}
}

// NewUnauthorized builds the 401 error body used by the authentication middleware.
func NewUnauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message)
}

// IsUnauthorized reports whether err is an APIError with HTTP status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}

	return false
}
