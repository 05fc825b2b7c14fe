// Package errors provides custom error types for the company reconciliation
// system. These errors enable programmatic error checking (transient vs.
// fatal store failures, validation vs. parse failures) and carry enough
// context to be useful in the audit trail.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the reconciliation system
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates that the document store is temporarily unavailable
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrResourceExhausted indicates that the store's throughput limit was exceeded
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrRetriesExhausted indicates that a transient failure persisted past the retry budget
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrBatchTooLarge indicates a write batch over the store's per-batch operation limit
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrReadOnly indicates an attempt to write during a dry run
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a field validation failure. Validation
// failures are never fatal: the offending field is dropped to "no value"
// and processing continues.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// StoreError represents an error returned by the document store collaborator.
// Transient is set for the timeout / unavailable / resource-exhausted class
// that the batch orchestrator retries with backoff.
type StoreError struct {
	Op        string // "get", "query", "batch-write", "paginate"
	Key       string
	Transient bool
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	if e.Transient {
		return target == ErrStoreUnavailable
	}
	return false
}

// NewStoreError creates a new StoreError
func NewStoreError(op, key string, transient bool, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Transient: transient, Err: err}
}

// ParseError represents an error when parsing input artifacts
type ParseError struct {
	Format  string // "csv", "yaml"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// MergeError represents an error during an entity merge or duplicate collapse
type MergeError struct {
	TargetID string
	LoserIDs []string
	Err      error
}

// Error implements the error interface
func (e *MergeError) Error() string {
	if len(e.LoserIDs) > 0 {
		return fmt.Sprintf("merge into %s (collapsing %v): %v", e.TargetID, e.LoserIDs, e.Err)
	}
	return fmt.Sprintf("merge into %s: %v", e.TargetID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a new MergeError
func NewMergeError(targetID string, loserIDs []string, err error) *MergeError {
	return &MergeError{TargetID: targetID, LoserIDs: loserIDs, Err: err}
}

// BatchError represents a fatal batch run failure. Cursor carries the last
// identifier whose page committed, so the operator can resume without
// reprocessing committed work.
type BatchError struct {
	Page   int
	Cursor string
	Err    error
}

// Error implements the error interface
func (e *BatchError) Error() string {
	if e.Cursor != "" {
		return fmt.Sprintf("batch run failed on page %d (resume from %q): %v", e.Page, e.Cursor, e.Err)
	}
	return fmt.Sprintf("batch run failed on page %d: %v", e.Page, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *BatchError) Unwrap() error {
	return e.Err
}

// NewBatchError creates a new BatchError
func NewBatchError(page int, cursor string, err error) *BatchError {
	return &BatchError{Page: page, Cursor: cursor, Err: err}
}

// IOError represents an error during report or resume-file I/O
type IOError struct {
	Operation string // "read", "write", "create", "append"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsTransient reports whether an error belongs to the retryable class:
// store timeouts, unavailability, and resource exhaustion. Everything else
// is fatal to the current run.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Transient
	}
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrResourceExhausted) ||
		errors.Is(err, ErrTimeout)
}

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
