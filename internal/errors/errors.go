// Package errors provides categorized errors for the annotation engine.
//
// Every failure that crosses an engine boundary (microphone, upload,
// persistence, transcription) is built with the fluent builder so callers can
// branch on a category instead of on message text:
//
//	err := errors.New(cause).
//		Component("feedback").
//		Category(errors.CategorySubmitFailed).
//		Context("temp_id", id).
//		Build()
//
//	if errors.IsCategory(err, errors.CategorySubmitFailed) { ... }
package errors

import (
	stderrors "errors"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for branching and display.
type ErrorCategory string

const (
	CategoryPermissionDenied         ErrorCategory = "permission-denied"
	CategoryUploadFailed             ErrorCategory = "upload-failed"
	CategorySubmitFailed             ErrorCategory = "submit-failed"
	CategoryTranscriptionUnavailable ErrorCategory = "transcription-unavailable"

	CategoryState            ErrorCategory = "state"
	CategoryValidation       ErrorCategory = "validation"
	CategoryReadOnly         ErrorCategory = "read-only"
	CategoryIdentityRequired ErrorCategory = "identity-required"
	CategoryNotFound         ErrorCategory = "not-found"
	CategoryConfiguration    ErrorCategory = "configuration"
	CategoryDatabase         ErrorCategory = "database"
	CategoryNetwork          ErrorCategory = "network"
	CategoryGeneric          ErrorCategory = "generic"
)

// ComponentUnknown is used when no component was given.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with a category, component and context.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	if ee.Err != nil {
		return ee.Err.Error()
	}
	if msg, ok := ee.Context["error"].(string); ok {
		return msg
	}
	return string(ee.Category)
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError by category, otherwise defers to the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return ee.Err != nil && Is(ee.Err, target)
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.Context))
	maps.Copy(out, ee.Context)
	return out
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder around err. err may be nil when the
// failure is described entirely by its category and context.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	return ee
}

// CategoryOf returns the category of the first EnhancedError in err's chain,
// or CategoryGeneric when there is none.
func CategoryOf(err error) ErrorCategory {
	var ee *EnhancedError
	if As(err, &ee) {
		return ee.Category
	}
	return CategoryGeneric
}

// IsCategory reports whether any EnhancedError in err's chain has category cat.
func IsCategory(err error, cat ErrorCategory) bool {
	if err == nil {
		return false
	}
	return Is(err, &EnhancedError{Category: cat})
}

// NewStd creates a plain error, for sentinel values.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
