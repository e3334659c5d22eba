package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/ErlanBelekov/departments-api/internal/metrics"
	"github.com/ErlanBelekov/departments-api/internal/repository"
	pkgerrors "github.com/pkg/errors"
)

// Default account seeded on first boot.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

type tokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

type AuthUsecase struct {
	users  repository.UserRepository
	hasher passwordHasher
	tokens tokenIssuer
	logger *slog.Logger
}

func NewAuthUsecase(users repository.UserRepository, hasher passwordHasher, tokens tokenIssuer, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "auth_usecase"),
	}
}

// LoginResult never carries the password hash.
type LoginResult struct {
	AccessToken string
	User        domain.User
}

// Authenticate resolves username/password to a user. An unknown username and
// a wrong password both return domain.ErrInvalidCredentials; faults that keep
// the check from completing return a *domain.InfraError.
func (u *AuthUsecase) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := u.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.logger.WarnContext(ctx, "login attempt with unknown username", "username", username)
			return nil, domain.ErrInvalidCredentials
		}
		u.logger.ErrorContext(ctx, "find user", "username", username, "error", err)
		return nil, &domain.InfraError{Message: "Database error during authentication", Err: pkgerrors.WithStack(err)}
	}

	ok, err := u.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		u.logger.ErrorContext(ctx, "verify password", "username", username, "error", err)
		return nil, &domain.InfraError{Message: "Error during authentication", Err: pkgerrors.WithStack(err)}
	}
	if !ok {
		u.logger.WarnContext(ctx, "login attempt with wrong password", "username", username)
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and issues a bearer token. Credential rejections pass
// through unwrapped; a signing fault is reported as a *domain.InfraError.
func (u *AuthUsecase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := u.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	signed, err := u.tokens.Issue(user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		u.logger.ErrorContext(ctx, "issue token", "user_id", user.ID, "error", err)
		return nil, &domain.InfraError{Message: "Error generating authentication token", Err: pkgerrors.WithStack(err)}
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	u.logger.InfoContext(ctx, "user authenticated", "user_id", user.ID)

	safe := *user
	safe.PasswordHash = ""
	return &LoginResult{AccessToken: signed, User: safe}, nil
}

// SeedDefaultUser creates the default account when it does not exist. It is
// safe to run concurrently with itself: the username unique constraint
// decides the winner and the losers' duplicate error is swallowed.
func (u *AuthUsecase) SeedDefaultUser(ctx context.Context) error {
	_, err := u.users.FindByUsername(ctx, DefaultUsername)
	if err == nil {
		u.logger.InfoContext(ctx, "default user already exists", "username", DefaultUsername)
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("check default user: %w", err)
	}

	hash, err := u.hasher.Hash(DefaultPassword)
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}

	created, err := u.users.Create(ctx, DefaultUsername, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			u.logger.InfoContext(ctx, "default user created concurrently", "username", DefaultUsername)
			return nil
		}
		return fmt.Errorf("create default user: %w", err)
	}

	u.logger.InfoContext(ctx, "default user created", "username", DefaultUsername, "user_id", created.ID)
	return nil
}
