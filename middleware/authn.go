// Package middleware contains the Echo middleware of the auth service.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	serrors "github.com/preppulse/auth/errors"
	"github.com/preppulse/auth/services"
)

const (
	claimsContextKey = "auth_claims"
	userIDContextKey = "auth_user_id"
)

// Authenticator validates bearer access tokens on protected routes.
type Authenticator struct {
	tokens *services.TokenService
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(tokens *services.TokenService) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate rejects requests without a valid Authorization header and
// stores the validated claims on the request context.
func (a *Authenticator) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized("authorization header is missing"))
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized("invalid authorization header format: expected Bearer token"))
		}

		claims, err := a.tokens.ValidateAccessToken(parts[1])
		if err != nil {
			return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized("invalid or expired token"))
		}

		c.Set(claimsContextKey, claims)
		c.Set(userIDContextKey, claims.Subject)

		return next(c)
	}
}

// UserID returns the authenticated user ID stored by Authenticate.
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(userIDContextKey).(string)

	return id, ok && id != ""
}

// Claims returns the validated access claims stored by Authenticate.
func Claims(c echo.Context) (*services.AccessClaims, bool) {
	claims, ok := c.Get(claimsContextKey).(*services.AccessClaims)

	return claims, ok
}
