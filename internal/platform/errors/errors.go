// Package errors provides sentinel errors and wrapping helpers shared by
// collectors, the HTTP client and the resilience layer.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for common failure scenarios
var (
	ErrTimeout            = errors.New("operation timed out")
	ErrRateLimit          = errors.New("rate limit exceeded")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInvalidResponse    = errors.New("invalid response")
	ErrCircuitOpen        = errors.New("circuit breaker is open")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with a context message. Wrap(nil, ...) is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// StatusError is returned for unexpected HTTP status codes. It unwraps to
// the sentinel matching the status class.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Service, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return FromStatus(e.StatusCode)
}

// FromStatus maps an HTTP status code to a sentinel (nil for 2xx/3xx).
func FromStatus(code int) error {
	switch {
	case code < 400:
		return nil
	case code == 401 || code == 403:
		return ErrUnauthorized
	case code == 404:
		return ErrNotFound
	case code == 408:
		return ErrTimeout
	case code == 429:
		return ErrRateLimit
	case code >= 500:
		return ErrServiceUnavailable
	default:
		return ErrInvalidInput
	}
}

func Is(err, target error) bool             { return errors.Is(err, target) }
func As(err error, target interface{}) bool { return errors.As(err, target) }
func Unwrap(err error) error                { return errors.Unwrap(err) }
func New(msg string) error                  { return errors.New(msg) }
func Join(errs ...error) error              { return errors.Join(errs...) }

func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func IsTimeout(err error) bool {
	if Is(err, ErrTimeout) || Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return As(err, &netErr) && netErr.Timeout()
}

func IsRateLimit(err error) bool          { return Is(err, ErrRateLimit) }
func IsNotFound(err error) bool           { return Is(err, ErrNotFound) }
func IsInvalidInput(err error) bool       { return Is(err, ErrInvalidInput) }
func IsConnectionFailed(err error) bool   { return Is(err, ErrConnectionFailed) }
func IsUnauthorized(err error) bool       { return Is(err, ErrUnauthorized) }
func IsServiceUnavailable(err error) bool { return Is(err, ErrServiceUnavailable) }
func IsInvalidResponse(err error) bool    { return Is(err, ErrInvalidResponse) }
func IsCircuitOpen(err error) bool        { return Is(err, ErrCircuitOpen) }

// IsRetryable reports whether repeating the operation may succeed.
// Cancellation by the caller is never retryable.
func IsRetryable(err error) bool {
	if err == nil || Is(err, context.Canceled) {
		return false
	}
	return IsTimeout(err) || IsRateLimit(err) || IsServiceUnavailable(err) || IsConnectionFailed(err)
}
