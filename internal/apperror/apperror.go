// Package apperror defines the error taxonomy shared by every layer.
//
// The service layer returns these errors; the handler layer maps them to HTTP
// status codes and the CLI maps them to messages. Callers test for a kind with
// errors.Is(err, apperror.ErrNotFound) and extract details with errors.As.
//
// TAXONOMY:
//   - ErrConnection     the request never got a response (network unreachable, DNS, refused)
//   - ErrAPI            an upstream answered with a non-2xx status
//   - ErrCredential     login was rejected by the authentication backend
//   - ErrValidation     a client-side field constraint failed
//   - ErrNotFound       the requested entity is absent
//   - ErrUnauthenticated no usable session exists
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrConnection      = errors.New("connection failed")
	ErrAPI             = errors.New("api error")
	ErrCredential      = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error

	// Status and Body are set for ErrAPI: the upstream HTTP status and the raw
	// response text, so the detail view can show exactly what GitHub said.
	Status int
	Body   string

	// Cause is the underlying transport error for ErrConnection.
	Cause error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the transport cause, so errors.Is
// matches ErrConnection as well as context.DeadlineExceeded.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Connection wraps a transport failure. op names the operation that was being
// attempted, e.g. "login" or "list commits".
func Connection(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrConnection,
		Message: fmt.Sprintf("%s: could not reach server", op),
		Cause:   cause,
	}
}

// API describes a non-2xx upstream response. message is the server-supplied
// message when one could be parsed; otherwise a generic one is built.
func API(op string, status int, message, body string) *AppError {
	if message == "" {
		message = fmt.Sprintf("%s failed with status %d", op, status)
	}
	return &AppError{
		Err:     ErrAPI,
		Message: message,
		Status:  status,
		Body:    body,
	}
}

// Credential is returned when login is rejected.
func Credential(message string) *AppError {
	if message == "" {
		message = "invalid email or password"
	}
	return &AppError{
		Err:     ErrCredential,
		Message: message,
	}
}

// Unauthenticated is returned when an operation needs a session and none exists.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "login required",
	}
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
