package client

import (
	"errors"
	"fmt"
	"time"
)

// ClientError represents different types of TLQ client errors
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	ConnectionError      ErrorType = "connection"
	TimeoutError         ErrorType = "timeout"
	ServerError          ErrorType = "server"
	ValidationError      ErrorType = "validation"
	SerializationError   ErrorType = "serialization"
	IOError              ErrorType = "io"
	RetryExhaustedError  ErrorType = "retry_exhausted"
	MessageTooLargeError ErrorType = "message_too_large"
)

// connectionError represents failures to establish or keep a connection
type connectionError struct {
	message string
	wrapped error
}

func (e *connectionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("connection error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("connection error: %s", e.message)
}

func (e *connectionError) Type() ErrorType {
	return ConnectionError
}

func (e *connectionError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents an expired deadline, carrying the attempted duration
type timeoutError struct {
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error after %dms", e.timeout.Milliseconds())
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

// serverError represents a non-success status returned by the server
type serverError struct {
	status  int
	message string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.status, e.message)
}

func (e *serverError) Type() ErrorType {
	return ServerError
}

func (e *serverError) StatusCode() int {
	return e.status
}

func (e *serverError) Message() string {
	return e.message
}

// validationError represents input validation failures raised before any
// network activity
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// serializationError represents payload encode/decode failures
type serializationError struct {
	message string
	wrapped error
}

func (e *serializationError) Error() string {
	return fmt.Sprintf("serialization error: %s: %v", e.message, e.wrapped)
}

func (e *serializationError) Type() ErrorType {
	return SerializationError
}

func (e *serializationError) Unwrap() error {
	return e.wrapped
}

// ioError represents low-level read/write failures on an open connection
type ioError struct {
	message string
	wrapped error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("io error: %s: %v", e.message, e.wrapped)
}

func (e *ioError) Type() ErrorType {
	return IOError
}

func (e *ioError) Unwrap() error {
	return e.wrapped
}

// retryExhaustedError reports a spent retry budget. The retry engine
// itself surfaces the last underlying error instead; this kind exists
// for callers that wrap exhaustion explicitly.
type retryExhaustedError struct {
	maxRetries uint
}

func (e *retryExhaustedError) Error() string {
	return fmt.Sprintf("max retries exceeded (%d) for operation", e.maxRetries)
}

func (e *retryExhaustedError) Type() ErrorType {
	return RetryExhaustedError
}

// messageTooLargeError represents a body over the 64KiB limit
type messageTooLargeError struct {
	size int
}

func (e *messageTooLargeError) Error() string {
	return fmt.Sprintf("message too large: %d bytes (max: %d)", e.size, MaxMessageSize)
}

func (e *messageTooLargeError) Type() ErrorType {
	return MessageTooLargeError
}

// NewConnectionError creates a new connection error
func NewConnectionError(message string, wrapped error) ClientError {
	return &connectionError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error for the given deadline
func NewTimeoutError(timeout time.Duration) ClientError {
	return &timeoutError{
		timeout: timeout,
	}
}

// NewServerError creates a new server error from a status code and
// response body text
func NewServerError(status int, message string) ClientError {
	return &serverError{
		status:  status,
		message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// NewSerializationError creates a new serialization error
func NewSerializationError(message string, wrapped error) ClientError {
	return &serializationError{
		message: message,
		wrapped: wrapped,
	}
}

// NewIOError creates a new I/O error
func NewIOError(message string, wrapped error) ClientError {
	return &ioError{
		message: message,
		wrapped: wrapped,
	}
}

// NewRetryExhaustedError creates a new retry exhaustion error
func NewRetryExhaustedError(maxRetries uint) ClientError {
	return &retryExhaustedError{
		maxRetries: maxRetries,
	}
}

// NewMessageTooLargeError creates a new oversized-message error
func NewMessageTooLargeError(size int) ClientError {
	return &messageTooLargeError{
		size: size,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsServerStatus checks if an error is a server error with a specific
// status code
func IsServerStatus(err error, status int) bool {
	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return srvErr.StatusCode() == status
	}
	return false
}

// IsRetryable reports whether re-attempting the same operation may
// succeed. Only transport-level failures qualify; validation, server and
// decode failures are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	switch clientErr.Type() {
	case ConnectionError, TimeoutError, IOError:
		return true
	default:
		return false
	}
}
