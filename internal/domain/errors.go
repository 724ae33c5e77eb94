package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the auth core. Store and crypto failures are
// normalized into these at the service boundary; handlers translate them
// to HTTP statuses and never see raw pgx/redis errors.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode covers missing, expired and mismatched verification
	// codes alike, so responses cannot be used to probe which one it was.
	ErrInvalidCode = errors.New("invalid or expired verification code")

	ErrAlreadyVerified     = errors.New("email already verified")
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInternal            = errors.New("internal error")
)

// ValidationError reports a bad input shape.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// RateLimitedError carries the lockout duration for the Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %d seconds", int(e.RetryAfter.Seconds()))
}
