package apperror_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

func newNormalizer(production bool) *apperror.Normalizer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return apperror.NewNormalizer(production, logger, apperror.WithClock(func() time.Time { return fixedNow }))
}

type timeoutError struct{ msg string }

func (e *timeoutError) Error() string { return e.msg }
func (e *timeoutError) Kind() string  { return "TimeoutError" }

type kindError struct{ kind string }

func (e *kindError) Error() string { return "kinded failure" }
func (e *kindError) Kind() string  { return e.kind }

// explodingError panics when its message is read.
type explodingError struct{}

func (explodingError) Error() string { panic("boom") }

func TestNormalize_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation rejection",
			err:        apperror.Validation("name must be at least 2 characters", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
			wantMsg:    "name must be at least 2 characters",
		},
		{
			name:       "not found rejection keeps message",
			err:        apperror.NotFound("Department with ID 5 not found", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   apperror.CodeNotFound,
			wantMsg:    "Department with ID 5 not found",
		},
		{
			name:       "authentication rejection",
			err:        apperror.Unauthenticated("Invalid credentials", nil),
			wantStatus: http.StatusUnauthorized,
			wantCode:   apperror.CodeAuthentication,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "authorization rejection",
			err:        apperror.Forbidden("Forbidden resource"),
			wantStatus: http.StatusForbidden,
			wantCode:   apperror.CodeAuthorization,
			wantMsg:    "Forbidden resource",
		},
		{
			name:       "classified internal fault",
			err:        apperror.Internal("Error generating authentication token", errors.New("hmac broke")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeInternal,
			wantMsg:    "Error generating authentication token",
		},
		{
			name:       "other explicit status derives from status text",
			err:        apperror.New(http.StatusConflict, "already there", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT_ERROR",
			wantMsg:    "already there",
		},
		{
			name:       "wrapped classified error",
			err:        fmt.Errorf("handler: %w", apperror.NotFound("Sub-department with ID 9 not found", nil)),
			wantStatus: http.StatusNotFound,
			wantCode:   apperror.CodeNotFound,
			wantMsg:    "Sub-department with ID 9 not found",
		},
		{
			name:       "storage duplicate",
			err:        fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "users_username_key"`}),
			wantStatus: http.StatusConflict,
			wantCode:   apperror.CodeDBDuplicate,
			wantMsg:    `duplicate key value violates unique constraint "users_username_key"`,
		},
		{
			name:       "storage not found",
			err:        &pgconn.PgError{Code: "P0002", Message: "Row Not Found in lookup"},
			wantStatus: http.StatusNotFound,
			wantCode:   apperror.CodeDBEntityNotFound,
			wantMsg:    "Row Not Found in lookup",
		},
		{
			name:       "storage constraint",
			err:        &pgconn.PgError{Code: "23503", Message: `insert or update on table "sub_departments" violates foreign key constraint "fk"`},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeDBConstraint,
			wantMsg:    `insert or update on table "sub_departments" violates foreign key constraint "fk"`,
		},
		{
			name:       "storage other",
			err:        &pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`},
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeDB,
			wantMsg:    `relation "users" does not exist`,
		},
		{
			name:       "connection refused",
			err:        fmt.Errorf("query: %w", syscall.ECONNREFUSED),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperror.CodeDBConnection,
			wantMsg:    "Database connection failed",
		},
		{
			name:       "connection timeout",
			err:        fmt.Errorf("query: %w", syscall.ETIMEDOUT),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperror.CodeDBConnection,
			wantMsg:    "Database connection failed",
		},
		{
			name:       "dial failure",
			err:        &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperror.CodeDBConnection,
			wantMsg:    "Database connection failed",
		},
		{
			name:       "protocol error keeps its code",
			err:        &apperror.ProtocolError{Code: "METHOD_NOT_ALLOWED", Status: http.StatusMethodNotAllowed, Message: "Method not allowed"},
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   "METHOD_NOT_ALLOWED",
			wantMsg:    "Method not allowed",
		},
		{
			name:       "protocol error without code",
			err:        &apperror.ProtocolError{Message: "bad operation"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeProtocol,
			wantMsg:    "bad operation",
		},
		{
			name:       "kind name derives code",
			err:        &timeoutError{msg: "operation timed out"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "TIMEOUT_ERROR",
			wantMsg:    "operation timed out",
		},
		{
			name:       "camel case kind name",
			err:        &kindError{kind: "QueryFailedError"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "QUERY_FAILED_ERROR",
			wantMsg:    "kinded failure",
		},
		{
			name:       "empty kind falls back",
			err:        &kindError{kind: "Error"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeInternal,
			wantMsg:    "kinded failure",
		},
		{
			name:       "exported type name derives code",
			err:        fmt.Errorf("resolve db: %w", &net.DNSError{Err: "no such host", Name: "db.internal"}),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "DNS_ERROR",
			wantMsg:    "resolve db: lookup db.internal: no such host",
		},
		{
			name:       "type name seen through stack wrapping",
			err:        pkgerrors.Wrap(&strconv.NumError{Func: "ParseInt", Num: "x", Err: strconv.ErrSyntax}, "parse"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "NUM_ERROR",
			wantMsg:    `parse: strconv.ParseInt: parsing "x": invalid syntax`,
		},
		{
			name:       "recovered panic stays internal",
			err:        pkgerrors.WithStack(&apperror.PanicError{Value: "boom"}),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeInternal,
			wantMsg:    "panic: boom",
		},
		{
			name:       "unclassified fault",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeInternal,
			wantMsg:    "something odd",
		},
	}

	n := newNormalizer(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := n.Normalize(context.Background(), tt.err, "POST /departments")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if env.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Code, tt.wantCode)
			}
			if env.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", env.Message, tt.wantMsg)
			}
			if env.Path != "POST /departments" {
				t.Errorf("path = %q", env.Path)
			}
			if env.Timestamp != "2026-03-04T05:06:07.890Z" {
				t.Errorf("timestamp = %q", env.Timestamp)
			}
		})
	}
}

func TestNormalize_EmptyPathIsUnknown(t *testing.T) {
	_, env := newNormalizer(false).Normalize(context.Background(), errors.New("x"), "")
	if env.Path != "unknown" {
		t.Errorf("path = %q, want unknown", env.Path)
	}
}

func TestNormalize_NilError(t *testing.T) {
	status, env := newNormalizer(false).Normalize(context.Background(), nil, "GET /x")
	if status != http.StatusInternalServerError || env.Code != apperror.CodeInternal {
		t.Errorf("got %d %q", status, env.Code)
	}
}

func TestNormalize_PanicWhileNormalizing_FallsBack(t *testing.T) {
	status, env := newNormalizer(false).Normalize(context.Background(), explodingError{}, "GET /x")
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if env.Code != apperror.CodeInternal || env.Message != "Internal Server Error" {
		t.Errorf("envelope = %+v", env)
	}
	if env.Path != "GET /x" {
		t.Errorf("path = %q", env.Path)
	}
}

func TestNormalize_NonProduction_IncludesStackAndDetails(t *testing.T) {
	n := newNormalizer(false)

	_, env := n.Normalize(context.Background(), pkgerrors.WithStack(&timeoutError{msg: "slow"}), "GET /x")
	if env.Exception == nil || len(env.Exception.Stacktrace) == 0 {
		t.Fatal("expected a stack trace outside production")
	}
	if env.Code != "TIMEOUT_ERROR" {
		t.Errorf("code = %q", env.Code)
	}

	_, env = n.Normalize(context.Background(), apperror.Validation("bad", map[string]any{"name": "min"}), "GET /x")
	if env.Details["name"] != "min" {
		t.Errorf("details = %v", env.Details)
	}

	_, env = n.Normalize(context.Background(), errors.New("no stack here"), "GET /x")
	if env.Exception != nil {
		t.Error("errors without a stack must not carry an exception")
	}
}

func TestNormalize_Production_HidesInternals(t *testing.T) {
	n := newNormalizer(true)

	errs := []error{
		apperror.Validation("name must be at least 2 characters", map[string]any{"name": "min"}),
		apperror.NotFound("Department with ID 5 not found", nil),
		pkgerrors.WithStack(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}),
		pkgerrors.WithStack(&timeoutError{msg: "slow"}),
		pkgerrors.WithStack(errors.New("secret internals")),
	}

	for _, err := range errs {
		_, env := n.Normalize(context.Background(), err, "GET /x")
		raw, mErr := json.Marshal(env)
		if mErr != nil {
			t.Fatalf("marshal: %v", mErr)
		}
		body := string(raw)
		if strings.Contains(body, "exception") || strings.Contains(body, "stacktrace") || strings.Contains(body, "details") {
			t.Errorf("production envelope leaks internals: %s", body)
		}
	}

	_, env := n.Normalize(context.Background(), &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, "GET /x")
	if env.Code != apperror.CodeDBDuplicate || env.Message != "Duplicate entry" {
		t.Errorf("storage envelope = %+v", env)
	}

	_, env = n.Normalize(context.Background(), errors.New("secret internals"), "GET /x")
	if env.Message != "Internal Server Error" {
		t.Errorf("unclassified message = %q", env.Message)
	}

	_, env = n.Normalize(context.Background(), apperror.NotFound("Department with ID 5 not found", nil), "GET /x")
	if env.Message != "Department with ID 5 not found" {
		t.Errorf("classified message must be preserved, got %q", env.Message)
	}
}

func TestNormalize_LogsFullDetailInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	n := apperror.NewNormalizer(true, logger)

	n.Normalize(context.Background(), pkgerrors.WithStack(errors.New("secret internals")), "GET /x")

	line := buf.String()
	for _, want := range []string{`"code":"INTERNAL_SERVER_ERROR"`, "secret internals", `"stack":[`, `"level":"ERROR"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestNormalize_RejectionsLogAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	n := apperror.NewNormalizer(false, logger)

	n.Normalize(context.Background(), apperror.Unauthenticated("Invalid credentials", nil), "POST /auth/login")

	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Errorf("expected warn level: %s", buf.String())
	}
}

func TestNormalize_Production_TypeDerivedCodeHidesMessage(t *testing.T) {
	_, env := newNormalizer(true).Normalize(context.Background(),
		&net.DNSError{Err: "no such host", Name: "db.internal"}, "GET /x")

	if env.Code != "DNS_ERROR" {
		t.Errorf("code = %q, want DNS_ERROR", env.Code)
	}
	if env.Message != "Internal Server Error" {
		t.Errorf("message = %q, want the generic message", env.Message)
	}
}
