// Package apperror defines the classified errors handlers raise and the
// Normalizer that turns any failure into the single Envelope callers see.
package apperror

import (
	"fmt"
	"net/http"
)

// Stable external error codes.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeAuthentication      = "AUTHENTICATION_ERROR"
	CodeAuthorization       = "AUTHORIZATION_ERROR"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeDBDuplicate         = "DATABASE_DUPLICATE_ENTRY"
	CodeDBEntityNotFound    = "DATABASE_ENTITY_NOT_FOUND"
	CodeDBConstraint        = "DATABASE_CONSTRAINT_VIOLATION"
	CodeDB                  = "DATABASE_ERROR"
	CodeDBConnection        = "DATABASE_CONNECTION_ERROR"
	CodeProtocol            = "GRAPHQL_ERROR"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
	internalMessage         = "Internal Server Error"
	connectionFailedMessage = "Database connection failed"
)

// Error is a failure that already knows its HTTP status.
type Error struct {
	Status  int
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Err: cause}
}

func Validation(message string, details map[string]any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Details: details}
}

func Unauthenticated(message string, cause error) *Error {
	return New(http.StatusUnauthorized, message, cause)
}

// Forbidden is reserved; no rule currently produces it.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string, cause error) *Error {
	return New(http.StatusNotFound, message, cause)
}

func Internal(message string, cause error) *Error {
	return New(http.StatusInternalServerError, message, cause)
}

// ProtocolError is a transport-level failure that carries its own code and
// status. An empty Code normalizes to CodeProtocol, a zero Status to 500.
type ProtocolError struct {
	Code    string
	Status  int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
