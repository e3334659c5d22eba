package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token is expired")

	// ErrAuthInfrastructure marks faults where authentication could not
	// complete at all (storage, hashing, signing), as opposed to a rejection.
	ErrAuthInfrastructure = errors.New("authentication infrastructure failure")
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID   string
	Username string
}

// InfraError is an infrastructure fault raised during authentication.
// Message is safe to show to callers; Err carries the internal cause.
type InfraError struct {
	Message string
	Err     error
}

func (e *InfraError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InfraError) Unwrap() error { return e.Err }

func (e *InfraError) Is(target error) bool { return target == ErrAuthInfrastructure }
