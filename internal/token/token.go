// Package token issues and validates the HS256 bearer tokens handed out at
// login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Lifetime is fixed; tokens are never renewed.
const Lifetime = 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

func (c *Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.Subject, Username: c.Username}
}

type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type Option func(*Issuer)

// WithClock overrides time.Now for both issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(key []byte, opts ...Option) *Issuer {
	i := &Issuer{key: key, ttl: Lifetime, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue signs {sub, username, iat, exp} for user. No state is persisted.
func (i *Issuer) Issue(user *domain.User) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: user.Username,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm and expiry. It returns an error
// matching domain.ErrTokenExpired for a well-formed token past exp, and
// domain.ErrTokenInvalid for everything else.
func (i *Issuer) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
	if !t.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}
	return claims, nil
}
