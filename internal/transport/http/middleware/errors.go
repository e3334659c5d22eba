package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/ErlanBelekov/departments-api/internal/metrics"
	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
)

type normalizer interface {
	Normalize(ctx context.Context, err error, path string) (int, apperror.Envelope)
}

// Errors renders the last error recorded with c.Error as an envelope. It must
// run before Recovery so recovered panics reach it too.
func Errors(n normalizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		status, env := n.Normalize(c.Request.Context(), c.Errors.Last().Err, c.Request.URL.Path)
		metrics.ErrorsTotal.WithLabelValues(env.Code).Inc()

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, env)
	}
}

// Recovery converts a handler panic into an error carrying the panic site's
// stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		_ = c.Error(pkgerrors.WithStack(&apperror.PanicError{Value: rec}))
		c.Abort()
	})
}

func NoRoute(c *gin.Context) {
	_ = c.Error(apperror.NotFound(fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path), nil))
}

func NoMethod(c *gin.Context) {
	_ = c.Error(apperror.New(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), nil))
}
