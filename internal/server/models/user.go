package models

import "time"

// User is a registered account. ResetToken and TokenExpiration are either
// both set (a reset is pending) or both nil.
type User struct {
	ID              string
	UserName        string
	Email           string
	PasswordHash    string
	ResetToken      *string
	TokenExpiration *time.Time
	CreatedAt       time.Time
}

// HasPendingReset reports whether a reset token is stored and has not
// expired at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetToken != nil && u.TokenExpiration != nil && !now.After(*u.TokenExpiration)
}
