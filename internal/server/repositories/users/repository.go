package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, userID, token, passwordHash string, now time.Time) error
}

// DuplicateError reports which unique field a new user collided on.
// It matches common.ErrorAlreadyExists under errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return e.Field + " already exists"
}

func (e *DuplicateError) Unwrap() error {
	return common.ErrorAlreadyExists
}
