// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels and additional details, mapped onto
// the four-category error taxonomy the pipeline is built around:
// input-invalid, infeasible, budget-exceeded and internal-invariant.
package apperror

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Input validation (category: input-invalid).
	CodeUnknownVertex     ErrorCode = "UNKNOWN_VERTEX"
	CodeSelfLoop          ErrorCode = "SELF_LOOP"
	CodeNegativeDistance  ErrorCode = "NEGATIVE_DISTANCE"
	CodeNegativeCapacity  ErrorCode = "NEGATIVE_CAPACITY"
	CodeNegativeVolume    ErrorCode = "NEGATIVE_VOLUME"
	CodeMalformedTime     ErrorCode = "MALFORMED_TIME"
	CodeInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput          ErrorCode = "NIL_INPUT"
	CodeDuplicateID       ErrorCode = "DUPLICATE_ID"

	// Connectivity / feasibility (category: infeasible — non-fatal).
	CodeNoPath            ErrorCode = "NO_PATH"
	CodeZoneUnassignable  ErrorCode = "ZONE_UNASSIGNABLE"
	CodeSlotUnplaceable   ErrorCode = "SLOT_UNPLACEABLE"

	// Resource budget (category: budget-exceeded).
	CodeBudgetExceeded ErrorCode = "BUDGET_EXCEEDED"

	// Invariant violations (category: internal-invariant — always fatal).
	CodeCapacityInvariant  ErrorCode = "CAPACITY_INVARIANT_VIOLATED"
	CodeCoverageInvariant  ErrorCode = "COVERAGE_INVARIANT_VIOLATED"
	CodeInternalInvariant  ErrorCode = "INTERNAL_INVARIANT_VIOLATED"

	// General.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue folded into the
	// response's warnings/unassigned fields; processing continues.
	SeverityWarning Severity = iota
	// SeverityError indicates the request is rejected atomically with no
	// partial output.
	SeverityError
	// SeverityCritical indicates a post-condition failed: a bug, never
	// silently repaired, surfaced with the offending value for repro.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "error"
	}
}

// Error is a custom error type carrying a code, message, optional field,
// structured details, an optional cause and a severity level.
type Error struct {
	Code     ErrorCode
	Message  string
	Field    string
	Details  map[string]any
	Cause    error
	Severity Severity
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new application error with SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]any), Severity: SeverityError}
}

// NewWithField creates a new application error with a field and SeverityError.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{Code: code, Message: message, Field: field, Details: make(map[string]any), Severity: SeverityError}
}

// NewWarning creates a new application error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]any), Severity: SeverityWarning}
}

// NewCritical creates a new application error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]any), Severity: SeverityCritical}
}

// Wrap wraps an existing error with a code and message, SeverityError.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Details: make(map[string]any), Severity: SeverityError}
}

// WithDetails adds a key-value pair to the error's details and returns it.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns it.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level and returns the error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from err, or CodeInternal if err is not an *Error.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsWarning reports whether err is an *Error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical reports whether err is an *Error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// Predefined errors for common scenarios.
var (
	ErrNoPath         = New(CodeNoPath, "no path from source to sink")
	ErrNilGraph       = New(CodeNilInput, "graph is nil")
	ErrBudgetExceeded = NewWarning(CodeBudgetExceeded, "wall-clock budget exceeded before natural termination")
)

// ValidationErrors collects errors and warnings from multiple checks, used
// by every layer's input validation pass.
type ValidationErrors struct {
	Errors   []*Error
	Warnings []*Error
}

// NewValidationErrors returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]*Error, 0), Warnings: make([]*Error, 0)}
}

// Add appends err to Errors or Warnings based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddError creates and adds a new SeverityError entry.
func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

// AddWarning creates and adds a new SeverityWarning entry.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

// AddErrorWithField creates and adds a new SeverityError entry with a field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// HasErrors reports whether the collection has any non-warning entries.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasWarnings reports whether the collection has any warnings.
func (v *ValidationErrors) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// IsValid reports whether the collection contains no errors.
func (v *ValidationErrors) IsValid() bool {
	return !v.HasErrors()
}

// Merge appends other's errors and warnings onto v.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// ErrorMessages returns the string messages of every collected error.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// WarningMessages returns the plain messages of every collected warning.
func (v *ValidationErrors) WarningMessages() []string {
	messages := make([]string, len(v.Warnings))
	for i, warn := range v.Warnings {
		messages[i] = warn.Message
	}
	return messages
}
