package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/pkg/database"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, full_name, phone, email, password_hash, role, email_verified,
		activation_token, website, subscribe_email, created_at, activated_at`

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, "users.Create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		u.ID,
		u.FullName,
		u.Phone,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Role,
		u.EmailVerified,
		u.ActivationToken,
		u.Website,
		u.SubscribeEmail,
		u.CreatedAt,
		u.ActivatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return apperrors.Write("insert user", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, "users.GetByID", query, id)
}

// GetByEmail retrieves a user by their email address, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, "users.GetByEmail", query, strings.ToLower(email))
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	query := `
		UPDATE users
		SET full_name = $1, phone = $2, email = $3, password_hash = $4, role = $5,
		    email_verified = $6, activation_token = $7, website = $8, subscribe_email = $9,
		    activated_at = $10
		WHERE id = $11`

	ctx, end := database.TraceQuery(ctx, "users.Update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		u.FullName,
		u.Phone,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Role,
		u.EmailVerified,
		u.ActivationToken,
		u.Website,
		u.SubscribeEmail,
		u.ActivatedAt,
		u.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return apperrors.Write("update user", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

func (r *UserRepository) scanUser(ctx context.Context, op, query, arg string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var u domain.User
	err = r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.FullName,
		&u.Phone,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.EmailVerified,
		&u.ActivationToken,
		&u.Website,
		&u.SubscribeEmail,
		&u.CreatedAt,
		&u.ActivatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", arg)
		}
		return nil, apperrors.Query("get user", err)
	}

	return &u, nil
}
