// Package errors provides a lightweight structured error type (RelBuilderError)
// for category-based classification and retry semantics in the pipeline runner and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a relbuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategorySecret     ErrorCategory = "secret"

	// External system integration errors
	CategoryGit     ErrorCategory = "git"
	CategoryExec    ErrorCategory = "exec"
	CategoryPublish ErrorCategory = "publish"

	// Pipeline and processing errors
	CategoryDrift      ErrorCategory = "drift"
	CategoryArtifact   ErrorCategory = "artifact"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RelBuilderError is a structured error with category, retryability, and context
type RelBuilderError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for RelBuilderError
type ContextFields map[string]any

// Error implements the error interface
func (e *RelBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *RelBuilderError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *RelBuilderError) WithContext(key string, value any) *RelBuilderError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new RelBuilderError
func New(category ErrorCategory, severity ErrorSeverity, message string) *RelBuilderError {
	return &RelBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new RelBuilderError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelBuilderError {
	return &RelBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable RelBuilderError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelBuilderError {
	return &RelBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if rbe, ok := err.(*RelBuilderError); ok {
		return rbe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if rbe, ok := err.(*RelBuilderError); ok {
		return rbe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a RelBuilderError
func GetCategory(err error) ErrorCategory {
	if rbe, ok := err.(*RelBuilderError); ok {
		return rbe.Category
	}
	return CategoryInternal
}
