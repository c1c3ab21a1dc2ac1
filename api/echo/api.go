// Package echo exposes the PrepPulse auth service over HTTP.
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/preppulse/auth/api"
	serrors "github.com/preppulse/auth/errors"
	"github.com/preppulse/auth/middleware"
	"github.com/preppulse/auth/services"
)

// AuthAPI holds the handler dependencies.
type AuthAPI struct {
	auth  *services.AuthService
	authn *middleware.Authenticator
}

// NewAuthAPI initializes the auth API.
func NewAuthAPI(auth *services.AuthService, authn *middleware.Authenticator) *AuthAPI {
	return &AuthAPI{auth: auth, authn: authn}
}

// RegisterRoutes registers the auth routes.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", a.RegisterHandler)
	e.POST("/auth/login", a.LoginHandler)
	e.POST("/auth/refresh", a.RefreshHandler)
	e.POST("/auth/logout", a.LogoutHandler)

	e.GET("/auth/me", a.MeHandler, a.authn.Authenticate)
	e.PATCH("/users/profile", a.UpdateProfileHandler, a.authn.Authenticate)
}

// errorResponse maps service errors onto the wire error shape. Every
// error body carries a human-readable message field.
func errorResponse(c echo.Context, err error) error {
	var apiErr *serrors.APIError
	if errors.As(err, &apiErr) {
		return c.JSON(apiErr.Status, apiErr)
	}

	switch {
	case errors.Is(err, serrors.ErrInvalidCredentials),
		errors.Is(err, serrors.ErrSessionExpired),
		errors.Is(err, serrors.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized(err.Error()))
	case errors.Is(err, serrors.ErrEmailTaken):
		return c.JSON(http.StatusConflict, serrors.NewAPIError(http.StatusConflict, err.Error()))
	case errors.Is(err, serrors.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, serrors.NewAPIError(http.StatusNotFound, err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, serrors.NewAPIError(http.StatusInternalServerError, ""))
	}
}

// RegisterHandler handles POST /auth/register.
func (a *AuthAPI) RegisterHandler(c echo.Context) error {
	var req api.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewAPIError(http.StatusBadRequest, "malformed request body"))
	}

	resp, err := a.auth.Register(c.Request().Context(), req, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// LoginHandler handles POST /auth/login.
func (a *AuthAPI) LoginHandler(c echo.Context) error {
	var req api.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewAPIError(http.StatusBadRequest, "malformed request body"))
	}

	resp, err := a.auth.Login(c.Request().Context(), req.Email, req.Password, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// RefreshHandler handles POST /auth/refresh. A successful call rotates
// the refresh token; the redeemed token is dead afterwards.
func (a *AuthAPI) RefreshHandler(c echo.Context) error {
	var req api.RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, serrors.NewAPIError(http.StatusBadRequest, "refresh_token is required"))
	}

	resp, err := a.auth.Refresh(c.Request().Context(), req.RefreshToken, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// LogoutHandler handles POST /auth/logout. Best-effort from the client's
// point of view: revoking an unknown token still returns 204.
func (a *AuthAPI) LogoutHandler(c echo.Context) error {
	var req api.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewAPIError(http.StatusBadRequest, "malformed request body"))
	}

	if err := a.auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return errorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// MeHandler handles GET /auth/me.
func (a *AuthAPI) MeHandler(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized("authentication required"))
	}

	user, err := a.auth.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, api.UserResponse{User: user})
}

// UpdateProfileHandler handles PATCH /users/profile.
func (a *AuthAPI) UpdateProfileHandler(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized("authentication required"))
	}

	var req api.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewAPIError(http.StatusBadRequest, "malformed request body"))
	}

	user, err := a.auth.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, api.UserResponse{User: user})
}
