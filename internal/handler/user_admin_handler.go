package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/middleware"
	"github.com/octobees/leadscan/internal/service"
)

// UserAdminHandler lets admins provision operator accounts.
type UserAdminHandler struct {
	users *service.UserService
}

// NewUserAdminHandler constructs a handler instance.
func NewUserAdminHandler(users *service.UserService) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

// Create handles POST /admin/users. The acting admin is recorded in the log.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err, "failed to create user")
	}

	middleware.Logger(c).Info("operator account created",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
		zap.String("created_by", middleware.UserIDFromContext(c)),
	)
	return Success(c, http.StatusCreated, "user created", user)
}
