// Package apperr defines the error classes shared by the plan, progress and
// persistence layers. Callers branch on class with the Is* predicates, which
// see through fmt.Errorf("%w") wrapping.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input to a constructor or operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced id that is absent from a collection.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidOperationError reports a state-machine violation.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %s: %s", e.Op, e.Reason)
}

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func InvalidOperation(op, format string, args ...any) error {
	return &InvalidOperationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsInvalidOperation(err error) bool {
	var e *InvalidOperationError
	return errors.As(err, &e)
}
