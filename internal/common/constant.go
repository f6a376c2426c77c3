package common

import "time"

// AuthorizationHeaderName carries the bearer token on every authenticated request.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// ResetTokenValidity is how long a password reset token stays usable.
const ResetTokenValidity = 30 * time.Minute
