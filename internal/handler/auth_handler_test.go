package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/leadscan/internal/auth"
	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/middleware"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service"
)

func newAuthHandler(repo repository.UsersRepository) *AuthHandler {
	return NewAuthHandler(service.NewAuthService(repo, auth.NewJWTManager("test-secret", 0)))
}

func TestAuthHandler_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	known := &stubUsersRepo{
		findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
			if email != "ops@example.com" {
				return nil, repository.ErrUserNotFound
			}
			return &entity.User{ID: uuid.New(), Email: email, PasswordHash: string(hashed), Role: auth.RoleAdmin}, nil
		},
	}
	broken := &stubUsersRepo{
		findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, errors.New("connection reset")
		},
	}

	tests := map[string]struct {
		repo    repository.UsersRepository
		payload any
		code    int
	}{
		"invalid payload": {repo: known, payload: "{", code: http.StatusBadRequest},
		"missing fields":  {repo: known, payload: map[string]string{"email": " "}, code: http.StatusBadRequest},
		"unknown user":    {repo: known, payload: dto.LoginRequest{Email: "who@example.com", Password: "x"}, code: http.StatusUnauthorized},
		"wrong password":  {repo: known, payload: dto.LoginRequest{Email: "ops@example.com", Password: "nope"}, code: http.StatusUnauthorized},
		"repository down": {repo: broken, payload: dto.LoginRequest{Email: "ops@example.com", Password: "x"}, code: http.StatusInternalServerError},
		"success":         {repo: known, payload: dto.LoginRequest{Email: "ops@example.com", Password: "secret-pass"}, code: http.StatusOK},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req, rec := jsonRequest(t, http.MethodPost, "/auth/login", tt.payload)
			c := echo.New().NewContext(req, rec)

			assert.NoError(t, newAuthHandler(tt.repo).Login(c))
			assert.Equal(t, tt.code, rec.Code)

			if tt.code == http.StatusOK {
				var out dto.LoginResponse
				resp := decodeResponse(t, rec, &out)
				assert.Equal(t, "success", resp.Status)
				assert.NotEmpty(t, out.AccessToken)
				assert.Equal(t, "Bearer", out.TokenType)
				assert.Equal(t, auth.RoleAdmin, out.Role)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	id := uuid.New()
	repo := &stubUsersRepo{
		findByID: func(ctx context.Context, got uuid.UUID) (*entity.User, error) {
			if got != id {
				return nil, repository.ErrUserNotFound
			}
			return &entity.User{ID: id, Email: "ops@example.com", Role: auth.RoleAdmin}, nil
		},
	}

	tests := map[string]struct {
		userID string
		code   int
	}{
		"own account":     {userID: id.String(), code: http.StatusOK},
		"deleted account": {userID: uuid.NewString(), code: http.StatusUnauthorized},
		"malformed id":    {userID: "not-a-uuid", code: http.StatusUnauthorized},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)
			c.Set(middleware.ContextKeyUserID, tt.userID)

			assert.NoError(t, newAuthHandler(repo).Me(c))
			assert.Equal(t, tt.code, rec.Code)

			if tt.code == http.StatusOK {
				var out dto.UserResponse
				decodeResponse(t, rec, &out)
				assert.Equal(t, "ops@example.com", out.Email)
				assert.Equal(t, auth.RoleAdmin, out.Role)
			}
		})
	}
}
