package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/middleware"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service"
)

// serviceError maps pipeline errors onto HTTP statuses. Anything unknown is
// logged and answered with fallback.
func serviceError(c echo.Context, err error, fallback string) error {
	var validationErr service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return Error(c, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrInvalidBusinessID):
		return Error(c, http.StatusBadRequest, "invalid business id")
	case errors.Is(err, service.ErrInvalidReviewStatus):
		return Error(c, http.StatusBadRequest, "status must be pending, approved or archived")
	case errors.Is(err, repository.ErrBusinessNotFound):
		return Error(c, http.StatusNotFound, "lead not found")
	case errors.Is(err, repository.ErrEmailDuplicate):
		return Error(c, http.StatusConflict, "email already exists")
	}

	middleware.Logger(c).Error(fallback,
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return Error(c, http.StatusInternalServerError, fallback)
}
