package bootstrap

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

// ErrValidation is matched by every ValidationError via errors.Is.
var ErrValidation = errors.New("invalid parameters")

// Validation reasons.
const (
	ReasonMissing     = "missing"
	ReasonNotNumeric  = "not numeric"
	ReasonOutOfRange  = "out of range"
	ReasonUnsupported = "unsupported"
	ReasonWhitespace  = "contains whitespace"
)

// ValidationError reports a malformed or missing parameter.
type ValidationError struct {
	Field  string // e.g. "webPort", "codePath"
	Reason string
	Value  string // raw value as supplied, empty when missing
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, reason, value string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: reason,
		Value:  value,
	}
}
