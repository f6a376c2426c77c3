package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/mail"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
)

const resetTokenBytes = 32

// Notifier accepts outgoing mail without blocking.
type Notifier interface {
	Enqueue(msg mail.Message) error
}

// ResetOptions tune the password reset flow.
type ResetOptions struct {
	PublicURL string
	Validity  time.Duration
	// RevealUnknownEmail makes RequestReset fail with common.ErrorNotFound
	// for unknown addresses instead of succeeding silently.
	RevealUnknownEmail bool
}

// ResetService issues and redeems single-use password reset tokens.
type ResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	notifier    Notifier
	opts        ResetOptions
	logger      logging.Logger
	now         func() time.Time
}

func NewResetService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	notifier Notifier, opts ResetOptions, l logging.Logger) *ResetService {
	if opts.Validity <= 0 {
		opts.Validity = common.ResetTokenValidity
	}
	return &ResetService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		notifier:    notifier,
		opts:        opts,
		logger:      l.With("module", "reset_service"),
		now:         time.Now,
	}
}

// RequestReset stores a new reset token for the account with email and
// queues the recovery mail. Any earlier token of that account stops working.
// Mail problems are logged and do not fail the request.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if s.opts.RevealUnknownEmail {
				return common.ErrorNotFound
			}
			s.logger.Info(ctx, "reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := common.MakeRandURLSafeString(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := repo.SetResetToken(ctx, user.ID, token, s.now().Add(s.opts.Validity)); err != nil {
		return err
	}

	msg, err := mail.PasswordResetMessage(user.Email, s.resetLink(token))
	if err != nil {
		s.logger.Error(ctx, "build reset mail", "user_id", user.ID, "error", err)
		return nil
	}
	if err := s.notifier.Enqueue(msg); err != nil {
		s.logger.Error(ctx, "enqueue reset mail", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *ResetService) resetLink(token string) string {
	return strings.TrimRight(s.opts.PublicURL, "/") + "/api/reset_password?token=" + url.QueryEscape(token)
}

// ResetPassword replaces the password of the account holding token and
// clears the token. Unknown, expired or already used tokens yield
// common.ErrInvalidResetToken.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	repo := s.repomanager.Users(s.db)

	now := s.now()
	user, err := repo.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetToken
		}
		return err
	}
	if !user.HasPendingReset(now) {
		return common.ErrInvalidResetToken
	}
	if s.hasher.Verify(newPassword, user.PasswordHash) {
		return common.ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// The update is conditioned on the token and its expiry, so of two
	// concurrent redemptions only one matches a row.
	if err := repo.ConsumeResetToken(ctx, user.ID, token, hash, now); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetToken
		}
		return err
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}
