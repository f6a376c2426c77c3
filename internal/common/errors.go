// Package common defines shared constants and sentinel errors used across
// the storefront server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Token errors.
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Password reset errors.
	ErrInvalidResetToken = errors.New("invalid or expired token")
	ErrPasswordUnchanged = errors.New("new password cannot be the same as the old password")

	// Mail outbox errors.
	ErrOutboxFull   = errors.New("mail outbox is full")
	ErrOutboxClosed = errors.New("mail outbox is closed")
)
