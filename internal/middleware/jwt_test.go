package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/leadscan/internal/auth"
)

func TestJWTMiddleware(t *testing.T) {
	e := echo.New()
	manager := auth.NewJWTManager("secret", 0)

	token, err := manager.GenerateToken("user-1", "user@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	tests := map[string]struct {
		header     string
		expectCode int
	}{
		"missing header": {expectCode: http.StatusUnauthorized},
		"invalid header": {header: "Basic token", expectCode: http.StatusUnauthorized},
		"invalid token":  {header: "Bearer invalid", expectCode: http.StatusUnauthorized},
		"success":        {header: "Bearer " + token, expectCode: http.StatusOK},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			executed := false
			err := JWT(manager)(func(c echo.Context) error {
				executed = true
				assert.Equal(t, "user-1", UserIDFromContext(c))
				assert.Equal(t, auth.RoleAdmin, c.Get(ContextKeyUserRole))
				return c.NoContent(http.StatusOK)
			})(c)

			require.NoError(t, err)
			assert.Equal(t, tt.expectCode, rec.Code)
			assert.Equal(t, tt.expectCode == http.StatusOK, executed)
		})
	}
}

func TestWorkerToken(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	tests := map[string]struct {
		secret string
		header string
		code   int
	}{
		"open when unset": {code: http.StatusNoContent},
		"missing header":  {secret: "s3cret", code: http.StatusUnauthorized},
		"wrong header":    {secret: "s3cret", header: "nope", code: http.StatusUnauthorized},
		"valid":           {secret: "s3cret", header: "s3cret", code: http.StatusNoContent},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/enrich-result", nil)
			if tt.header != "" {
				req.Header.Set("X-Worker-Token", tt.header)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, WorkerToken(tt.secret)(next)(e.NewContext(req, rec)))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
