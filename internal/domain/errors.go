// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/gRPC/etc by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrValidation indicates a manually entered quote is missing a required field.
	ErrValidation = errors.New("validation failed")

	// ErrFormat indicates an import payload is not a JSON array of quotes.
	ErrFormat = errors.New("invalid format")

	// ErrStorage indicates the key-value storage could not be read or written.
	ErrStorage = errors.New("storage failure")

	// ErrUnavailable indicates the remote quote source could not be reached
	// or answered with a non-success status.
	ErrUnavailable = errors.New("unavailable")

	// ErrNoQuotes is the empty-result condition: there is nothing to pick from.
	ErrNoQuotes = errors.New("no quotes available")
)

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FormatError describes why an import payload was rejected.
type FormatError struct {
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid format: %s: %v", e.Reason, e.Cause)
	}

	return "invalid format: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *FormatError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrFormat, e.Cause}
	}

	return []error{ErrFormat}
}

// NewFormatError creates a format error with an optional underlying cause.
func NewFormatError(reason string, cause error) error {
	return &FormatError{Reason: reason, Cause: cause}
}

// StorageError records which key and operation failed.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Cause)
	}

	return fmt.Sprintf("storage %s %q failed", e.Op, e.Key)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *StorageError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrStorage, e.Cause}
	}

	return []error{ErrStorage}
}

// NewStorageError creates a storage error for the given operation and key.
func NewStorageError(op, key string, cause error) error {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsFormat checks if an error is an import format error.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsNoQuotes checks if an error is the empty-result condition.
func IsNoQuotes(err error) bool {
	return errors.Is(err, ErrNoQuotes)
}
