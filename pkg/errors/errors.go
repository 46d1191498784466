// Package errors provides custom error types for the datakite system.
// These errors enable programmatic error checking with errors.Is and
// carry enough context for useful diagnostics at the CLI surface.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the datakite system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSameProject indicates that source and destination resolve to the
	// same project, which can never be synced into itself
	ErrSameProject = errors.New("source and destination are the same project")

	// ErrMergeConflict indicates an unresolved conflict between source
	// and destination content
	ErrMergeConflict = errors.New("merge conflict")

	// ErrSchemaConflict indicates structurally incompatible projects
	ErrSchemaConflict = errors.New("schema conflict")
)

// NotFoundError represents an error when a resource is not found
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

// ExistsError represents an error when a resource already exists
type ExistsError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s with ID %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *ExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewExistsError creates a new ExistsError
func NewExistsError(resource, id string) *ExistsError {
	return &ExistsError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MergeConflictError represents a file conflict with no strategy to resolve it
type MergeConflictError struct {
	Entry string
}

// Error implements the error interface
func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict for %q and no strategy provided", e.Entry)
}

// Is implements errors.Is support
func (e *MergeConflictError) Is(target error) bool {
	return target == ErrMergeConflict
}

// NewMergeConflictError creates a new MergeConflictError
func NewMergeConflictError(entry string) *MergeConflictError {
	return &MergeConflictError{Entry: entry}
}

// SchemaConflictError indicates that two projects have structurally
// incompatible job manifests. It carries both schema renderings for
// diagnostics.
type SchemaConflictError struct {
	Source      string
	Destination string
}

// Error implements the error interface
func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("project schemas differ:\nsource:\n%s\ndestination:\n%s",
		e.Source, e.Destination)
}

// Is implements errors.Is support
func (e *SchemaConflictError) Is(target error) bool {
	return target == ErrSchemaConflict
}

// NewSchemaConflictError creates a new SchemaConflictError
func NewSchemaConflictError(source, destination fmt.Stringer) *SchemaConflictError {
	return &SchemaConflictError{Source: source.String(), Destination: destination.String()}
}

// BackupExistsError indicates that a stale backup file blocks a
// transactional document merge
type BackupExistsError struct {
	Path string
}

// Error implements the error interface
func (e *BackupExistsError) Error() string {
	return fmt.Sprintf("failed to create backup, file already exists: %s", e.Path)
}

// Is implements errors.Is support
func (e *BackupExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewBackupExistsError creates a new BackupExistsError
func NewBackupExistsError(path string) *BackupExistsError {
	return &BackupExistsError{Path: path}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "json", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
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

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "copy", "remove"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// SyncError represents an error during a project sync operation
type SyncError struct {
	Source      string
	Destination string
	Job         string
	Err         error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Job != "" {
		return fmt.Sprintf("sync error for job %s (%s -> %s): %v", e.Job, e.Source, e.Destination, e.Err)
	}
	return fmt.Sprintf("sync error (%s -> %s): %v", e.Source, e.Destination, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(source, destination, job string, err error) *SyncError {
	return &SyncError{Source: source, Destination: destination, Job: job, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsMergeConflict checks if an error is a merge conflict error
func IsMergeConflict(err error) bool {
	return errors.Is(err, ErrMergeConflict)
}

// IsSchemaConflict checks if an error is a schema conflict error
func IsSchemaConflict(err error) bool {
	return errors.Is(err, ErrSchemaConflict)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns

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

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
