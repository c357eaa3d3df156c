package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/leadscan/internal/auth"
	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/repository"
)

var (
	// ErrMissingCredentials is returned when email or password is blank.
	ErrMissingCredentials = errors.New("email and password must not be empty")
	// ErrInvalidCredentials hides whether the account or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService coordinates credential validation and token issuance.
type AuthService struct {
	users repository.UsersRepository
	jwt   *auth.JWTManager
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UsersRepository, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{users: users, jwt: jwtManager}
}

// Login checks the operator's credentials and issues a bearer token. A
// failure to record the login time is logged and does not block sign-in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, eris.Wrap(err, "issue token")
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		zap.L().Warn("record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.TTL().Seconds()),
		Role:        user.Role,
	}, nil
}

// Profile returns the account behind an authenticated token subject.
func (s *AuthService) Profile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return userResponse(user), nil
}
