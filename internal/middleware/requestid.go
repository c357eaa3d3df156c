package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxRequestIDLength = 128

// RequestID reuses the caller's X-Request-ID or generates one, echoes it on
// the response and attaches a logger carrying it.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" || len(rid) > maxRequestIDLength {
				rid = uuid.NewString()
			}

			c.Set(ContextKeyRequestID, rid)
			c.Set(ContextKeyLogger, zap.L().With(zap.String("request_id", rid)))
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			return next(c)
		}
	}
}

// RequestIDFromContext extracts the request identifier if available.
func RequestIDFromContext(c echo.Context) string {
	if val, ok := c.Get(ContextKeyRequestID).(string); ok {
		return val
	}
	return ""
}

// Logger returns the request-scoped logger, or the global one outside a
// request that went through RequestID.
func Logger(c echo.Context) *zap.Logger {
	if l, ok := c.Get(ContextKeyLogger).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}
