// Package errors provides error types and handling for the endpoint checker.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents network-related errors (DNS, connection).
	Network
	// Timeout represents timeout errors.
	Timeout
	// ServerError represents 5xx errors.
	ServerError
	// ClientError represents 4xx errors.
	ClientError
	// Decode represents body decoding errors (non-JSON 200 responses).
	Decode
	// Validation represents well-formed JSON rejected by the response validator.
	Validation
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case ServerError:
		return "server_error"
	case ClientError:
		return "client_error"
	case Decode:
		return "decode"
	case Validation:
		return "validation"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsRetryable returns whether errors of this type should be retried.
func (t ErrorType) IsRetryable() bool {
	switch t {
	case Network, Timeout, ServerError:
		return true
	default:
		return false
	}
}

// ProbeError represents a categorized probe error.
type ProbeError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *ProbeError) Is(target error) bool {
	t, ok := target.(*ProbeError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewProbeError creates a new ProbeError.
func NewProbeError(errType ErrorType, url, operation, message string, cause error) *ProbeError {
	return &ProbeError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: errType.IsRetryable(),
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(url, operation string, cause error) *ProbeError {
	return NewProbeError(Network, url, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *ProbeError {
	return NewProbeError(Timeout, url, operation, "request timed out", cause)
}

// NewServerError creates a server error.
func NewServerError(url string, statusCode int) *ProbeError {
	err := NewProbeError(ServerError, url, "request", fmt.Sprintf("server returned %d", statusCode), nil)
	err.StatusCode = statusCode
	return err
}

// NewClientError creates a client error.
func NewClientError(url string, statusCode int) *ProbeError {
	err := NewProbeError(ClientError, url, "request", fmt.Sprintf("client error %d", statusCode), nil)
	err.StatusCode = statusCode
	err.Retryable = false
	return err
}

// NewDecodeError creates a decode error for a body that was not valid JSON.
func NewDecodeError(url, message string, cause error) *ProbeError {
	err := NewProbeError(Decode, url, "decode", message, cause)
	err.StatusCode = 200
	err.Retryable = false
	return err
}

// NewValidationError creates a validation error for JSON the validator rejected.
func NewValidationError(url, message string) *ProbeError {
	err := NewProbeError(Validation, url, "validate", message, nil)
	err.StatusCode = 200
	err.Retryable = false
	return err
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *ProbeError {
	err := NewProbeError(Cancelled, url, operation, "operation cancelled", nil)
	err.Retryable = false
	return err
}

// Categorize determines the error type from a generic error.
func Categorize(err error, url string) *ProbeError {
	if err == nil {
		return nil
	}

	// Already a ProbeError
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr
	}

	// Check for context cancellation
	if errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled") {
		return NewCancelledError(url, "request")
	}

	// Check for timeout
	if isTimeout(err) {
		return NewTimeoutError(url, "request", err)
	}

	// Check for network errors
	if isNetworkError(err) {
		return NewNetworkError(url, "request", err)
	}

	// Default to unknown
	return NewProbeError(Unknown, url, "request", err.Error(), err)
}

// CategorizeHTTPStatus creates an error from a non-200 HTTP status code.
func CategorizeHTTPStatus(statusCode int, url string) *ProbeError {
	switch {
	case statusCode >= 500:
		return NewServerError(url, statusCode)
	case statusCode >= 400:
		return NewClientError(url, statusCode)
	case statusCode >= 300 || (statusCode > 0 && statusCode < 200):
		err := NewProbeError(Unknown, url, "request", fmt.Sprintf("unexpected status %d", statusCode), nil)
		err.StatusCode = statusCode
		return err
	default:
		return nil
	}
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context deadline")
}

// isNetworkError checks if an error is network-related.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp")
}

// IsRetryable checks if an error should be retried on a later attempt round.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Retryable
	}

	var tempErr interface{ Temporary() bool }
	if errors.As(err, &tempErr) && tempErr.Temporary() {
		return true
	}

	return isTimeout(err) || isNetworkError(err)
}

// GetStatusCode extracts the status code from an error.
func GetStatusCode(err error) int {
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.StatusCode
	}
	return 0
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Type
	}
	return Unknown
}
