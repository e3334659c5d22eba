package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the header a request ID is read from and echoed back on.
const Header = "X-Request-ID"

const maxLen = 128

type ctxKey struct{}

// Resolve returns the client-supplied ID when it is short and printable,
// otherwise a fresh UUID v4.
func Resolve(incoming string) string {
	if incoming == "" || len(incoming) > maxLen {
		return uuid.NewString()
	}
	for i := 0; i < len(incoming); i++ {
		if c := incoming[i]; c < 0x21 || c > 0x7e {
			return uuid.NewString()
		}
	}
	return incoming
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns "" when no ID is attached.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
