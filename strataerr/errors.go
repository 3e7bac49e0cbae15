// Package strataerr defines the error taxonomy shared by every strata package.
// All expected failure modes surface as one of these types so callers can
// branch with errors.As/errors.Is instead of string matching.
package strataerr

import (
	"errors"
	"fmt"
)

// ValidationError reports bad caller input: an invalid identifier, an empty
// migration name, an unknown query column, or malformed configuration.
type ValidationError struct {
	Name   string // the offending identifier, field key, or config key
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Name, e.Reason)
}

// NewValidation creates a ValidationError for the named input.
func NewValidation(name, reason string) *ValidationError {
	return &ValidationError{Name: name, Reason: reason}
}

// UnsupportedTypeError reports a column kind that the selected dialect cannot
// map to a native type. Migration generation aborts before any SQL executes.
type UnsupportedTypeError struct {
	Kind    string
	Dialect string
}

// Error implements the error interface
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported column kind %q for dialect %s", e.Kind, e.Dialect)
}

// MigrationError reports a failure while creating, applying, or rolling back
// a migration. Version and Name identify the migration when known.
type MigrationError struct {
	Version string
	Name    string
	Err     error
}

// Error implements the error interface
func (e *MigrationError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("migration: %v", e.Err)
	}
	return fmt.Sprintf("migration %s_%s: %v", e.Version, e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MigrationError) Unwrap() error { return e.Err }

// InternalError wraps unexpected driver or I/O failures that have no more
// specific classification. Nothing is swallowed: the cause stays reachable
// through Unwrap.
type InternalError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InternalError) Unwrap() error { return e.Err }

// IsValidation returns true if the error is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnsupportedType returns true if the error is an UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	var ue *UnsupportedTypeError
	return errors.As(err, &ue)
}

// IsMigration returns true if the error is a MigrationError.
func IsMigration(err error) bool {
	var me *MigrationError
	return errors.As(err, &me)
}
