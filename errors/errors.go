/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a referenced entity or instance does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when attempting to create an instance whose key is taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned when a request argument is malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaValidation is returned when an entity descriptor is malformed
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrFieldValidation is returned when a value violates its field constraints
	ErrFieldValidation = errors.New("field validation failed")

	// ErrEntityKey is returned when a key field is null or has a kind not permitted for keys
	ErrEntityKey = errors.New("entity key violation")

	// ErrDocumentParse is returned when a nested document value cannot be parsed
	ErrDocumentParse = errors.New("document parse failed")

	// ErrTimestampFormat is returned when a timestamp literal cannot be parsed
	ErrTimestampFormat = errors.New("timestamp format invalid")

	// ErrNumberFormat is returned when a numeric literal cannot be parsed
	ErrNumberFormat = errors.New("number format invalid")
)

// NotFoundError reports a missing entity or instance by type and key.
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError reports a create whose key is already registered.
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: key %q already registered", e.Type, e.Key)
	}
	return fmt.Sprintf("%s: key already registered", e.Type)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError reports a malformed request argument.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// SchemaError reports a malformed entity descriptor.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// FieldError reports a value violating bounds, length, whitelist or nullability.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *FieldError) Is(target error) bool {
	return target == ErrFieldValidation
}

// KeyError reports a key field that is null or has a disallowed kind.
type KeyError struct {
	Field   string
	Message string
}

func (e *KeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("key field %q: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *KeyError) Is(target error) bool {
	return target == ErrEntityKey
}

// ParseError reports a nested document value that is not a string-keyed map.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Is(target error) bool {
	return target == ErrDocumentParse
}

// TimestampError reports an unparseable timestamp literal.
type TimestampError struct {
	Value string
}

func (e *TimestampError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("timestamp fields must use the ISO format, got %q", e.Value)
	}
	return "timestamp fields must use the ISO format"
}

func (e *TimestampError) Is(target error) bool {
	return target == ErrTimestampFormat
}

// NumberError reports an unparseable numeric literal.
type NumberError struct {
	Kind  string
	Value string
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("invalid %s literal: %q", e.Kind, e.Value)
}

func (e *NumberError) Is(target error) bool {
	return target == ErrNumberFormat
}

// FieldPathError carries the field path leading to a coercion or validation
// failure, rendered as "[a=>b=>c] message". The wrapped error stays reachable
// through errors.Is and errors.As.
type FieldPathError struct {
	Path []string
	Err  error
}

func (e *FieldPathError) Error() string {
	return fmt.Sprintf("[%s] %v", strings.Join(e.Path, "=>"), e.Err)
}

func (e *FieldPathError) Unwrap() error {
	return e.Err
}

// WithPath wraps err with a copy of the given field path. A nil err, an empty
// path, or an error already carrying a path passes through unchanged; nested
// coercion wraps at the innermost failure, where the path is complete.
func WithPath(path []string, err error) error {
	if err == nil || len(path) == 0 {
		return err
	}
	var existing *FieldPathError
	if errors.As(err, &existing) {
		return err
	}
	p := make([]string, len(path))
	copy(p, path)
	return &FieldPathError{Path: p, Err: err}
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(format string, args ...any) error {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// NewFieldError creates a new FieldError
func NewFieldError(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewKeyError creates a new KeyError
func NewKeyError(field, format string, args ...any) error {
	return &KeyError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewParseError creates a new ParseError
func NewParseError(format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// Is reports whether any error in err's chain matches target.
// Re-exported so callers do not need a second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsClientError reports whether an error belongs to the caller-visible
// taxonomy and should map to a client-error response.
func IsClientError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidInput,
		ErrSchemaValidation,
		ErrFieldValidation,
		ErrEntityKey,
		ErrDocumentParse,
		ErrTimestampFormat,
		ErrNumberFormat,
		ErrAlreadyExists,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
