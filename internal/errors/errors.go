package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the gateway
var (
	// Configuration errors
	ErrMissingClientCredentials = errors.New("KPOINT_CLIENT_ID and KPOINT_CLIENT_SECRET must be set")
	ErrMissingUserEmail         = errors.New("KPOINT_USER_EMAIL must be set")
	ErrSecretTooShort           = errors.New("KPOINT_CLIENT_SECRET must be at least 16 bytes")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
	ErrInternal       = errors.New("internal error")
)

// ConfigError reports a missing or unusable secret/identity. It is fatal to
// the operation and never retried.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError.
func NewConfigError(err error) error {
	return &ConfigError{Err: err}
}

// AuthError reports a rejected credential exchange. Status is zero when the
// exchange was never attempted (missing client identity).
type AuthError struct {
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth: %s: %d - %s", e.Message, e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Message, e.Err)
	}
	return "auth: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is an upstream non-2xx response. Body holds the parsed JSON body,
// or nil when the body was empty or not JSON.
type APIError struct {
	Status     int
	StatusText string
	Body       any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("KPOINT API error: %d %s", e.Status, e.StatusText)
}

// NetworkError is a transport failure talking to the upstream API, timeouts
// included.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError is a catalog or directory lookup miss.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError is missing or malformed caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps an error onto the status code returned to console callers.
func HTTPStatus(err error) int {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		apiErr        *APIError
		authErr       *AuthError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &notFoundErr), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
