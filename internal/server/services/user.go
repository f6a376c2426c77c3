// Package services contains server-side business logic. This file implements
// UserService: registration, login, logout, token refresh and profile lookup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	msgUsernameTaken = "That username is taken. Please choose a different one."
	msgEmailTaken    = "That email is taken. Please choose a different one."
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Revoker records token ids that must no longer be accepted. Revoke
// reports whether the call revoked jti, false when it already was.
type Revoker interface {
	Revoke(jti string, expiresAt time.Time) bool
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	issuer      *auth.TokenIssuer
	revoker     Revoker
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	issuer *auth.TokenIssuer, revoker Revoker, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		revoker:     revoker,
		logger:      l.With("module", "user_service"),
	}
}

// Register creates a user. Taken usernames or emails are reported as
// validation.Errors keyed by field.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *models.User
	err = inTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		taken := validation.Errors{}
		if _, err := repo.GetUserByLogin(ctx, username); err == nil {
			taken["username"] = errors.New(msgUsernameTaken)
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if _, err := repo.GetUserByEmail(ctx, email); err == nil {
			taken["email"] = errors.New(msgEmailTaken)
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if len(taken) > 0 {
			return taken
		}

		u, err := repo.Create(ctx, &models.User{UserName: username, Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		var dup *usersrepo.DuplicateError
		if errors.As(err, &dup) {
			return nil, duplicateFieldError(dup.Field)
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// inTx runs fn in a transaction. Without a database the in-memory
// repositories are used and fn runs directly.
func inTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, db, nil, fn)
}

func duplicateFieldError(field string) validation.Errors {
	switch field {
	case "email":
		return validation.Errors{"email": errors.New(msgEmailTaken)}
	case "username":
		return validation.Errors{"username": errors.New(msgUsernameTaken)}
	default:
		return validation.Errors{field: errors.New("already exists")}
	}
}

// Login verifies credentials and returns a fresh token pair. Unknown users
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	return s.issuePair(user)
}

// Logout revokes the presented access token. A refresh token is revoked
// too when it is valid and belongs to the same user; anything else about it
// is ignored.
func (s *UserService) Logout(ctx context.Context, identity *auth.Identity, refreshToken string) error {
	if identity == nil {
		return common.ErrUnauthenticated
	}
	s.revoker.Revoke(identity.TokenID, identity.ExpiresAt)

	if refreshToken != "" {
		claims, err := s.issuer.Parse(refreshToken)
		switch {
		case err != nil:
			s.logger.Debug(ctx, "logout: ignoring refresh token", "error", err)
		case claims.Kind != auth.KindRefresh || claims.Subject != identity.UserID:
			s.logger.Warn(ctx, "logout: refresh token does not belong to caller", "user_id", identity.UserID)
		default:
			s.revoker.Revoke(claims.ID, claims.ExpiresAt.Time)
		}
	}

	s.logger.Info(ctx, "user logged out", "user_id", identity.UserID)
	return nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token that has already been rotated, even by a request
// still in flight, yields common.ErrUnauthenticated.
func (s *UserService) Refresh(ctx context.Context, identity *auth.Identity) (*TokenPair, error) {
	if identity == nil || identity.Kind != auth.KindRefresh {
		return nil, common.ErrUnauthenticated
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	if !s.revoker.Revoke(identity.TokenID, identity.ExpiresAt) {
		return nil, common.ErrUnauthenticated
	}
	return s.issuePair(user)
}

func (s *UserService) Profile(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if identity == nil {
		return nil, common.ErrUnauthenticated
	}
	return s.repomanager.Users(s.db).GetUserByID(ctx, identity.UserID)
}

func (s *UserService) issuePair(user *models.User) (*TokenPair, error) {
	access, _, err := s.issuer.Issue(user.ID, user.UserName, auth.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := s.issuer.Issue(user.ID, user.UserName, auth.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
