package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/entity"
	"github.com/octobees/leadscan/internal/repository"
)

func TestUserService_CreateUser(t *testing.T) {
	var captured entity.User
	repo := &mockUsersRepository{
		create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
			captured = entity.User{Email: email, PasswordHash: passwordHash, Role: role}
			return &entity.User{
				ID:    uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc"),
				Email: email,
				Role:  role,
			}, nil
		},
	}

	resp, err := NewUserService(repo).CreateUser(context.Background(), dto.CreateUserRequest{
		Email:    "  New@Example.com ",
		Password: "secret-password",
		Role:     "  admin ",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", resp.Email)
	assert.Equal(t, "admin", resp.Role)
	assert.Equal(t, "cccccccc-cccc-cccc-cccc-cccccccccccc", resp.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("secret-password")))
}

func TestUserService_CreateUserDefaultsRole(t *testing.T) {
	repo := &mockUsersRepository{
		create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
			return &entity.User{ID: uuid.New(), Email: email, Role: role}, nil
		},
	}

	resp, err := NewUserService(repo).CreateUser(context.Background(), dto.CreateUserRequest{
		Email:    "ops@example.com",
		Password: "long-enough",
	})
	require.NoError(t, err)
	assert.Equal(t, "user", resp.Role)
}

func TestUserService_CreateUserValidation(t *testing.T) {
	svc := NewUserService(&mockUsersRepository{})

	tests := map[string]struct {
		req   dto.CreateUserRequest
		field string
	}{
		"missing email":  {req: dto.CreateUserRequest{Password: "long-enough"}, field: "email"},
		"bad email":      {req: dto.CreateUserRequest{Email: "nope", Password: "long-enough"}, field: "email"},
		"short password": {req: dto.CreateUserRequest{Email: "a@example.com", Password: "short"}, field: "password"},
		"unknown role":   {req: dto.CreateUserRequest{Email: "a@example.com", Password: "long-enough", Role: "root"}, field: "role"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.req)
			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestUserService_CreateUserDuplicate(t *testing.T) {
	repo := &mockUsersRepository{
		create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
			return nil, repository.ErrEmailDuplicate
		},
	}

	_, err := NewUserService(repo).CreateUser(context.Background(), dto.CreateUserRequest{
		Email:    "dup@example.com",
		Password: "long-enough",
	})
	assert.ErrorIs(t, err, repository.ErrEmailDuplicate)
}
