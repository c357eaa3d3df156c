package middleware

import "github.com/labstack/echo/v4"

// Keys for values the middleware stores on the echo context.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"
)

// UserIDFromContext returns the authenticated operator id, if any.
func UserIDFromContext(c echo.Context) string {
	v, _ := c.Get(ContextKeyUserID).(string)
	return v
}

func errorBody(message string) map[string]string {
	return map[string]string{"status": "error", "message": message}
}
