// Package faults defines the error taxonomy shared by the domain and application layers.
package faults

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Concrete errors match them through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrPolicy     = errors.New("policy violation")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports malformed input. It is always raised before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PolicyViolation reports a well-formed request that a business rule refuses.
type PolicyViolation struct {
	Rule   string
	Reason string
}

func Policy(rule, reason string) *PolicyViolation {
	return &PolicyViolation{Rule: rule, Reason: reason}
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("policy violation (%s): %s", e.Rule, e.Reason)
}

func (e *PolicyViolation) Is(target error) bool { return target == ErrPolicy }

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

const (
	KindValidation = "validation"
	KindConflict   = "conflict"
	KindPolicy     = "policy"
	KindNotFound   = "not_found"
	KindUnexpected = "unexpected"
)

// Kind maps an error to a stable label for logs and transport mapping.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrPolicy):
		return KindPolicy
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUnexpected
	}
}
