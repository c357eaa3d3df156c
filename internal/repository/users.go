package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/octobees/leadscan/internal/entity"
)

var (
	// ErrUserNotFound is returned when no operator matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailDuplicate is returned when an operator email is already taken.
	ErrEmailDuplicate = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, role, created_at, updated_at, last_login_at`

// UsersRepository declares the operator account operations.
type UsersRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

// PGXUsersRepository stores operators in the users table.
type PGXUsersRepository struct {
	pool pgxPool
}

// NewPGXUsersRepository instantiates a users repository.
func NewPGXUsersRepository(pool *pgxpool.Pool) *PGXUsersRepository {
	return &PGXUsersRepository{pool: pool}
}

// FindByEmail looks an operator up by login email, case-insensitively.
func (r *PGXUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeLogin(email))
	user, err := scanUser(row)
	if err != nil {
		return nil, eris.Wrap(err, "query user by email")
	}
	return user, nil
}

// FindByID retrieves an operator by identifier.
func (r *PGXUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, eris.Wrapf(err, "query user %s", id)
	}
	return user, nil
}

// Create inserts an operator. A taken email yields ErrEmailDuplicate.
func (r *PGXUsersRepository) Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, normalizeLogin(email), passwordHash, role)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, eris.Wrap(ErrEmailDuplicate, pgErr.ConstraintName)
		}
		return nil, eris.Wrap(err, "insert user")
	}
	return user, nil
}

// RecordLogin stamps last_login_at with the database clock.
func (r *PGXUsersRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "record login for %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeLogin(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
