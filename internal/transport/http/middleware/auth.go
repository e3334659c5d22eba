package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/ErlanBelekov/departments-api/internal/metrics"
	"github.com/ErlanBelekov/departments-api/internal/principal"
	"github.com/ErlanBelekov/departments-api/internal/token"
	"github.com/gin-gonic/gin"
)

const (
	errMissingToken = "Missing authentication token"
	errInvalidToken = "Invalid or expired token"
)

type tokenValidator interface {
	Validate(raw string) (*token.Claims, error)
}

// Auth validates a Bearer token and attaches the caller's identity to the
// request context. Rejections are handed to the error middleware.
func Auth(tokens tokenValidator, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "auth_middleware")

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.TokenValidationsTotal.WithLabelValues("missing").Inc()
			_ = c.Error(apperror.Unauthenticated(errMissingToken, nil))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			outcome := "invalid"
			if errors.Is(err, domain.ErrTokenExpired) {
				outcome = "expired"
			}
			metrics.TokenValidationsTotal.WithLabelValues(outcome).Inc()
			logger.WarnContext(c.Request.Context(), "token rejected", "reason", err)
			_ = c.Error(apperror.Unauthenticated(errInvalidToken, err))
			c.Abort()
			return
		}

		metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
		ctx := principal.WithIdentity(c.Request.Context(), claims.Identity())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
