package errors

import (
	"fmt"
)

// RagError is the structured error type for ragcity. It carries a stable
// code, a category and severity derived from that code, and optional detail
// for user presentation.
type RagError struct {
	Code     string
	Message  string
	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates whether the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *RagError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RagError) Unwrap() error {
	return e.Cause
}

// Is matches RagErrors by code, enabling errors.Is.
func (e *RagError) Is(target error) bool {
	if t, ok := target.(*RagError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *RagError) WithDetail(key, value string) *RagError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets an actionable hint and returns the error for chaining.
func (e *RagError) WithSuggestion(suggestion string) *RagError {
	e.Suggestion = suggestion
	return e
}

// New creates a RagError. Category, severity, and the retryable flag are
// derived from the code.
func New(code string, message string, cause error) *RagError {
	return &RagError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RagError from an existing error, reusing its message.
func Wrap(code string, err error) *RagError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *RagError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NetworkError creates a network error. Network errors are retryable.
func NetworkError(message string, cause error) *RagError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *RagError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *RagError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether err is a RagError flagged as retryable.
func IsRetryable(err error) bool {
	if ae, ok := err.(*RagError); ok {
		return ae.Retryable
	}
	return false
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	if ae, ok := err.(*RagError); ok {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or empty for non-RagErrors.
func GetCode(err error) string {
	if ae, ok := err.(*RagError); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category, or empty for non-RagErrors.
func GetCategory(err error) Category {
	if ae, ok := err.(*RagError); ok {
		return ae.Category
	}
	return ""
}
