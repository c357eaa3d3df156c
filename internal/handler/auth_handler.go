package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/middleware"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service"
)

// AuthHandler serves operator sign-in.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	resp, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case err == nil:
		return Success(c, http.StatusOK, "login successful", resp)
	case errors.Is(err, service.ErrMissingCredentials):
		return Error(c, http.StatusBadRequest, "email and password are required")
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.Logger(c).Info("login rejected", zap.String("remote_ip", c.RealIP()))
		return Error(c, http.StatusUnauthorized, "invalid credentials")
	default:
		return serviceError(c, err, "unable to authenticate")
	}
}

// Me handles GET /auth/me and returns the caller's own account.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authService.Profile(c.Request().Context(), middleware.UserIDFromContext(c))
	switch {
	case err == nil:
		return Success(c, http.StatusOK, "profile fetched", user)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, repository.ErrUserNotFound):
		return Error(c, http.StatusUnauthorized, "account no longer exists")
	default:
		return serviceError(c, err, "unable to load profile")
	}
}
