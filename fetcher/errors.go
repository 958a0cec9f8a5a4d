package fetcher

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the request exceeded its time budget.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus indicates a retryable non-2xx response (5xx or 429).
type ErrHTTPStatus struct {
	Code int
	Err  error
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Errorf("http_status %d: %w", e.Code, e.Err).Error()
}

func (e ErrHTTPStatus) Unwrap() error {
	return e.Err
}

// ErrFatalStatus indicates a client-error response that retrying cannot fix.
type ErrFatalStatus struct {
	Code int
	Err  error
}

func (e ErrFatalStatus) Error() string {
	return fmt.Errorf("fatal_status %d: %w", e.Code, e.Err).Error()
}

func (e ErrFatalStatus) Unwrap() error {
	return e.Err
}

// ErrMalformedPayload indicates the response body was not a JSON array of records.
type ErrMalformedPayload struct {
	Err error
}

func (e ErrMalformedPayload) Error() string {
	return fmt.Errorf("malformed_payload: %w", e.Err).Error()
}

func (e ErrMalformedPayload) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt at the same request may succeed.
func Retryable(err error) bool {
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return true
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return true
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return true
	}
	return false
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return "http_status"
	}
	var fatal ErrFatalStatus
	if errors.As(err, &fatal) {
		return "fatal_status"
	}
	var malformed ErrMalformedPayload
	if errors.As(err, &malformed) {
		return "malformed_payload"
	}
	return "other"
}
