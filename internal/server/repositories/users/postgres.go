// Package users is the credential store: a PostgreSQL-backed repository of
// user accounts, their password hashes and pending reset tokens.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

const selectUser = `SELECT id, username, email, password_hash, reset_token, token_expiration, created_at
		 FROM users`

var constraintFields = map[string]string{
	"users_username_key":    "username",
	"users_email_key":       "email",
	"users_reset_token_key": "reset_token",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in its generated id and creation time.
// A unique violation is returned as *DuplicateError.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			return nil, &DuplicateError{Field: constraintFields[constraint]}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, userName)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE reset_token = $1`, token)
}

// SetResetToken stores a pending reset for the user, replacing any earlier one.
func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query :=
		`UPDATE users SET reset_token = $1, token_expiration = $2
		 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, token, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// ConsumeResetToken replaces the password hash and clears the reset token in
// one statement. It only matches while the token is still stored and not
// expired at now, so of two concurrent consumers exactly one succeeds; the
// other gets common.ErrorNotFound.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, userID, token, passwordHash string, now time.Time) error {
	query :=
		`UPDATE users SET password_hash = $1, reset_token = NULL, token_expiration = NULL
		 WHERE id = $2 AND reset_token = $3 AND token_expiration >= $4`

	res, err := r.db.ExecContext(ctx, query, passwordHash, userID, token, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user       models.User
		resetToken sql.NullString
		expiration sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &resetToken, &expiration, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if resetToken.Valid && expiration.Valid {
		user.ResetToken = &resetToken.String
		user.TokenExpiration = &expiration.Time
	}
	return &user, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
