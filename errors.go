package goleviton

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is returned when authentication fails (wrong credentials or a
	// rejected token).
	ErrAuth = errors.New("authentication failed")

	// ErrTwoFactorRequired is returned by Login when the account requires a
	// two-factor code (HTTP 406).
	ErrTwoFactorRequired = errors.New("two-factor authentication code required")

	// ErrInvalidCode is returned by Login when the two-factor code is wrong
	// (HTTP 408).
	ErrInvalidCode = errors.New("invalid two-factor authentication code")

	// ErrTokenExpired is the ErrAuth sub-kind for a stale session token on
	// an authenticated call. Register a refresh func to recover
	// transparently.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrAuth)

	// ErrNotAuthenticated is returned when an authenticated call is made
	// before Login or RestoreSession.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConnection covers network failures and server-side (5xx) errors.
	ErrConnection = errors.New("connection error")
)

// APIError is a non-auth client error (4xx) with the server-reported message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}
