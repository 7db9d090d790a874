package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField indicates a field name outside the rule catalog.
	ErrUnknownField = errors.New("settings: unknown field")

	// ErrInvalidValue indicates a value whose type does not fit the field.
	ErrInvalidValue = errors.New("settings: invalid value")

	// ErrInvalidEncoding indicates ledger account data that does not match
	// the fixed settings schema.
	ErrInvalidEncoding = errors.New("settings: invalid encoding")
)

// Namespace selects which error bucket a validation failure is routed to.
type Namespace uint8

const (
	// NamespaceSettings is the default bucket for configuration fields.
	NamespaceSettings Namespace = iota

	// NamespaceTerms is the bucket for Terms & Conditions draft fields.
	NamespaceTerms
)

// String returns the display name of the namespace.
func (n Namespace) String() string {
	if n == NamespaceTerms {
		return "Terms"
	}
	return "Settings"
}

// ValidationError is a field- or combination-level rule failure. Code is the
// stable field name the failure belongs to; callers route the error to the
// bucket selected by Namespace.
type ValidationError struct {
	Namespace Namespace
	Code      string
	Message   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings: %s.%s: %s", e.Namespace, e.Code, e.Message)
}

// failf builds a ValidationError for a field.
func failf(ns Namespace, code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Namespace: ns, Code: code, Message: fmt.Sprintf(format, args...)}
}
