package apperror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the only error shape that leaves the process.
type Envelope struct {
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path"`
	Details   map[string]any `json:"details,omitempty"`
	Exception *Exception     `json:"exception,omitempty"`
}

type Exception struct {
	Stacktrace []string `json:"stacktrace"`
}

// Kinded errors name their own kind, e.g. "TimeoutError". The kind is used
// to derive a code when nothing more specific applies.
type Kinded interface {
	Kind() string
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

type Normalizer struct {
	production bool
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Normalizer)

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer builds a Normalizer. production hides details, stack traces
// and raw storage text from the emitted envelopes; logs always carry them.
func NewNormalizer(production bool, logger *slog.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		production: production,
		logger:     logger.With("component", "error_normalizer"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type classification struct {
	status  int
	code    string
	message string
	details map[string]any
}

// Normalize classifies err, logs it once and returns the status and envelope
// to emit. It never panics; a failure while normalizing yields the generic
// INTERNAL_SERVER_ERROR envelope.
func (n *Normalizer) Normalize(ctx context.Context, err error, path string) (status int, env Envelope) {
	if path == "" {
		path = "unknown"
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.ErrorContext(ctx, "error normalization failed",
				"panic", fmt.Sprintf("%v", r),
				"type", fmt.Sprintf("%T", err),
				"path", path,
			)
			status, env = http.StatusInternalServerError, n.fallback(path)
		}
	}()

	if err == nil {
		return http.StatusInternalServerError, n.fallback(path)
	}

	c := n.classify(err)
	stack := stackLines(err)

	attrs := []any{
		"code", c.code,
		"status", c.status,
		"path", path,
		"type", fmt.Sprintf("%T", rootCause(err)),
		"error", err.Error(),
	}
	if len(stack) > 0 {
		attrs = append(attrs, "stack", stack)
	}
	if c.status >= http.StatusInternalServerError {
		n.logger.ErrorContext(ctx, "request failed", attrs...)
	} else {
		n.logger.WarnContext(ctx, "request rejected", attrs...)
	}

	env = Envelope{
		Message:   c.message,
		Code:      c.code,
		Timestamp: n.now().UTC().Format(timestampLayout),
		Path:      path,
	}
	if !n.production {
		if len(c.details) > 0 {
			env.Details = c.details
		}
		if len(stack) > 0 {
			env.Exception = &Exception{Stacktrace: stack}
		}
	}
	return c.status, env
}

func (n *Normalizer) fallback(path string) Envelope {
	return Envelope{
		Message:   internalMessage,
		Code:      CodeInternal,
		Timestamp: n.now().UTC().Format(timestampLayout),
		Path:      path,
	}
}

// classify applies the rules in order; the first match wins.
func (n *Normalizer) classify(err error) classification {
	var appErr *Error
	if errors.As(err, &appErr) {
		status := appErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		msg := appErr.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return classification{status: status, code: codeForStatus(status), message: msg, details: appErr.Details}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return n.classifyStorage(pgErr)
	}

	if isConnectivity(err) {
		return classification{
			status:  http.StatusServiceUnavailable,
			code:    CodeDBConnection,
			message: connectionFailedMessage,
		}
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		c := classification{status: protoErr.Status, code: protoErr.Code, message: protoErr.Message}
		if c.code == "" {
			c.code = CodeProtocol
		}
		if c.status == 0 {
			c.status = http.StatusInternalServerError
		}
		return c
	}

	c := classification{status: http.StatusInternalServerError, code: CodeInternal, message: internalMessage}
	var kinded Kinded
	if errors.As(err, &kinded) {
		if code := codeFromKind(kinded.Kind()); code != "" {
			c.code = code
			c.message = err.Error()
			return c
		}
	}
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		if code := codeFromTypeName(err); code != "" {
			c.code = code
		}
	}
	if !n.production {
		c.message = err.Error()
	}
	return c
}

func (n *Normalizer) classifyStorage(pgErr *pgconn.PgError) classification {
	msg := strings.ToLower(pgErr.Message)

	var c classification
	switch {
	case strings.Contains(msg, "duplicate"):
		c = classification{status: http.StatusConflict, code: CodeDBDuplicate, message: "Duplicate entry"}
	case strings.Contains(msg, "not found"):
		c = classification{status: http.StatusNotFound, code: CodeDBEntityNotFound, message: "Entity not found"}
	case strings.Contains(msg, "constraint"):
		c = classification{status: http.StatusBadRequest, code: CodeDBConstraint, message: "Database constraint violation"}
	default:
		c = classification{status: http.StatusInternalServerError, code: CodeDB, message: "Database error"}
	}

	if !n.production {
		c.message = pgErr.Message
		c.details = map[string]any{"sqlstate": pgErr.Code}
		if pgErr.ConstraintName != "" {
			c.details["constraint"] = pgErr.ConstraintName
		}
		if pgErr.Detail != "" {
			c.details["detail"] = pgErr.Detail
		}
	}
	return c
}

func isConnectivity(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeAuthentication
	case http.StatusForbidden:
		return CodeAuthorization
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusInternalServerError:
		return CodeInternal
	}
	text := http.StatusText(status)
	if text == "" {
		return CodeInternal
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text)) + "_ERROR"
}

// codeFromKind turns "QueryFailedError" into "QUERY_FAILED_ERROR". It returns
// "" when nothing usable remains.
func codeFromKind(kind string) string {
	kind = strings.TrimSuffix(strings.TrimSpace(kind), "Error")
	rs := []rune(kind)

	var b strings.Builder
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}

	code := strings.Trim(b.String(), "_")
	if code == "" {
		return ""
	}
	return code + "_ERROR"
}

// codeFromTypeName derives a code from the innermost exported concrete type
// in the chain, so *net.DNSError becomes "DNS_ERROR". Unexported types such
// as *errors.errorString and the fmt or pkg/errors wrappers are skipped.
func codeFromTypeName(err error) string {
	var code string
	for ; err != nil; err = errors.Unwrap(err) {
		name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
		name, _, _ = strings.Cut(name, "[")
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if name == "" || !unicode.IsUpper([]rune(name)[0]) {
			continue
		}
		if c := codeFromKind(name); c != "" {
			code = c
		}
	}
	return code
}

func stackLines(err error) []string {
	var st stackTracer
	if !errors.As(err, &st) {
		return nil
	}
	frames := st.StackTrace()
	lines := make([]string, 0, len(frames))
	for _, f := range frames {
		lines = append(lines, fmt.Sprintf("%n %s:%d", f, f, f))
	}
	return lines
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
