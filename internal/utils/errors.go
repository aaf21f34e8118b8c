package utils

import "fmt"

// ValidationError represents an error occurring during input validation,
// such as a biomarker value outside its physiologically plausible range.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// UnsupportedSourceError indicates a microbiome test payload carried a source
// tag no parser is registered for.
type UnsupportedSourceError struct {
	Source string
}

// Error returns the error message string.
func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported microbiome test source: %s", e.Source)
}

// NewUnsupportedSourceError creates a new UnsupportedSourceError for the given source tag.
func NewUnsupportedSourceError(source string) error {
	return &UnsupportedSourceError{Source: source}
}
