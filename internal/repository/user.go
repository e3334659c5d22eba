package repository

import (
	"context"

	"github.com/ErlanBelekov/departments-api/internal/domain"
)

type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no row matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// Create inserts a user. The unique constraint on username is the source
	// of truth: a concurrent insert for the same name yields
	// domain.ErrDuplicateUsername.
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
}
