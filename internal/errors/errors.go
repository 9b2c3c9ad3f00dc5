package errors

import (
	stderrors "errors"
	"fmt"
)

// MemexError is the structured error type for memex.
// It carries enough context for logging, HTTP status mapping and CLI output.
type MemexError struct {
	// Code is the unique error code (e.g., "ERR_205_CORRUPT_INDEX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *MemexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *MemexError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a MemexError with the same code.
func (e *MemexError) Is(target error) bool {
	if t, ok := target.(*MemexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *MemexError) WithDetail(key, value string) *MemexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *MemexError) WithSuggestion(suggestion string) *MemexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new MemexError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *MemexError {
	return &MemexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a MemexError from an existing error.
// The error's message becomes the MemexError message.
func Wrap(code string, err error) *MemexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *MemexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *MemexError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *MemexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *MemexError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first MemexError in err's chain.
func As(err error) (*MemexError, bool) {
	var me *MemexError
	if stderrors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current build or process start.
func IsFatal(err error) bool {
	if me, ok := As(err); ok {
		return me.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a MemexError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if me, ok := As(err); ok {
		return me.Code
	}
	return ""
}

// GetCategory extracts the category from a MemexError anywhere in the chain.
func GetCategory(err error) Category {
	if me, ok := As(err); ok {
		return me.Category
	}
	return ""
}
