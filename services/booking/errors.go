package booking

import (
	"fmt"
	"strings"
)

// Error codes carried by the typed booking errors.
const (
	CodeValidation     = "validationError"
	CodeParseAmbiguity = "parseAmbiguity"
	CodeCollaborator   = "collaboratorError"
	CodeConfiguration  = "configurationError"
)

// ReasonPastDate is the reason attached to dates before the reference day.
const ReasonPastDate = "That date is in the past. Please choose today or a later date."

// ValidationError means the input does not satisfy a field's contract.
type ValidationError struct {
	Code   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Code: CodeValidation, Field: field, Reason: reason}
}

// ParseAmbiguityError means neither parsing tier produced a usable value.
type ParseAmbiguityError struct {
	Code   string
	Field  string
	Input  string
	Reason string
}

func (e *ParseAmbiguityError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", e.Code, e.Field, e.Input, e.Reason)
}

// NewParseAmbiguityError builds a ParseAmbiguityError.
func NewParseAmbiguityError(field, input, reason string) error {
	return &ParseAmbiguityError{Code: CodeParseAmbiguity, Field: field, Input: input, Reason: reason}
}

// CollaboratorError wraps a failure of an external dependency.
type CollaboratorError struct {
	Code string
	Op   string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError wraps err as a failure of op.
func NewCollaboratorError(op string, err error) error {
	return &CollaboratorError{Code: CodeCollaborator, Op: op, Err: err}
}

// ConfigurationError lists required settings that are missing.
type ConfigurationError struct {
	Code    string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Code, strings.Join(e.Missing, ", "))
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(missing ...string) error {
	return &ConfigurationError{Code: CodeConfiguration, Missing: missing}
}

func (e *ValidationError) ErrorCode() string     { return e.Code }
func (e *ParseAmbiguityError) ErrorCode() string { return e.Code }
func (e *CollaboratorError) ErrorCode() string   { return e.Code }
func (e *ConfigurationError) ErrorCode() string  { return e.Code }
