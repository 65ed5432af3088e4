package domain

import "fmt"

// ErrorCode identifies a class of definition or submission failure.
type ErrorCode string

// Definition error codes, raised while building or validating a workflow.
const (
	ErrDuplicateKey       ErrorCode = "DUPLICATE_KEY"
	ErrUnknownTask        ErrorCode = "UNKNOWN_TASK"
	ErrCycle              ErrorCode = "CYCLE"
	ErrIncompleteBranch   ErrorCode = "INCOMPLETE_BRANCH"
	ErrAmbiguousBranch    ErrorCode = "AMBIGUOUS_BRANCH"
	ErrInvalidConcurrency ErrorCode = "INVALID_CONCURRENCY"
	ErrInvalidDefinition  ErrorCode = "INVALID_DEFINITION"
)

// Submission error codes, raised by the Jobs API client.
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrAuthentication ErrorCode = "AUTHENTICATION"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrUpstreamError  ErrorCode = "UPSTREAM_ERROR"
)

// Error is a structured error with a code, a human-readable message, and
// optionally the task key it refers to and an underlying cause.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	TaskKey    string    `json:"task_key,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.TaskKey != "" && e.Cause != nil:
		return fmt.Sprintf("[%s] %s (task %q): %v", e.Code, e.Message, e.TaskKey, e.Cause)
	case e.TaskKey != "":
		return fmt.Sprintf("[%s] %s (task %q)", e.Code, e.Message, e.TaskKey)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithTask records the task key the error refers to.
func (e *Error) WithTask(key string) *Error {
	e.TaskKey = key
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus records the upstream HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// CodeOf extracts the error code from an error, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether a failed submission may be attempted again.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// IsValidation reports whether the error is a definition validation error,
// as opposed to a storage or upstream failure.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrDuplicateKey, ErrUnknownTask, ErrCycle, ErrIncompleteBranch,
		ErrAmbiguousBranch, ErrInvalidConcurrency, ErrInvalidDefinition:
		return true
	}
	return false
}
