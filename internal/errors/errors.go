// Package errors provides centralized error definitions and error handling
// utilities for the Taskward codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - RegistryError: errors related to the project registry
//   - AdmissionError: errors related to task admission from the intake directory
//   - BackendError: errors related to agent backend invocation
//   - PersistenceError: errors related to durable state files
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewRegistryError("failed to load registry", errors.ErrProjectNotFound)
//
//	// Semantic error
//	err := errors.NewNotFoundError("project", "alpha")
//
//	// With context wrapping
//	err := errors.NewBackendError("invocation failed", baseErr).WithTaskID("task-export-20260129-150000")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrProjectNotFound) { ... }
//
//	var backendErr *errors.BackendError
//	if errors.As(err, &backendErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require stopping the affected project.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Registry-related sentinel errors
var (
	// ErrProjectNotFound indicates that a project is not registered.
	ErrProjectNotFound = New("project not found")
	// ErrProjectExists indicates that a project name is already registered.
	ErrProjectExists = New("project already registered")
	// ErrRegistryCorrupted indicates that the registry file is unreadable.
	ErrRegistryCorrupted = New("registry data corrupted")
)

// Queue-related sentinel errors
var (
	// ErrTaskNotFound indicates that a task could not be found.
	ErrTaskNotFound = New("task not found")
	// ErrQueueBusy indicates that a task is already running for the project.
	ErrQueueBusy = New("a task is already running")
	// ErrQueueEmpty indicates that the queue has no pending tasks.
	ErrQueueEmpty = New("queue is empty")
	// ErrStateCorrupted indicates that a persisted state file is unreadable.
	ErrStateCorrupted = New("state data corrupted")
	// ErrRetriesExhausted indicates that a task used up its retry budget.
	ErrRetriesExhausted = New("retry limit exhausted")
)

// Admission-related sentinel errors
var (
	// ErrFilenameMismatch indicates that a file does not match the task
	// filename contract and must not be admitted.
	ErrFilenameMismatch = New("filename does not match task pattern")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrBackendFailed indicates that a backend invocation reported failure.
	ErrBackendFailed = New("backend invocation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TaskwardError is the base interface for all Taskward errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type TaskwardError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// RegistryError represents errors related to the project registry.
//
// Example:
//
//	err := errors.NewRegistryError("failed to persist registry", cause).WithProject("alpha")
type RegistryError struct {
	baseError
	Project string
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(message string, cause error) *RegistryError {
	return &RegistryError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithProject adds a project name to the error context.
func (e *RegistryError) WithProject(name string) *RegistryError {
	e.Project = name
	return e
}

// Error returns the formatted error message.
func (e *RegistryError) Error() string {
	prefix := "registry error"
	if e.Project != "" {
		prefix = fmt.Sprintf("registry error [project=%s]", e.Project)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *RegistryError) Is(target error) bool {
	if _, ok := target.(*RegistryError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AdmissionError represents a file that could not be admitted as a task.
// Admission errors are not fatal: the file is ignored and logged.
//
// Example:
//
//	err := errors.NewAdmissionError("notes.txt", errors.ErrFilenameMismatch)
type AdmissionError struct {
	baseError
	Filename string
	Project  string
}

// NewAdmissionError creates a new AdmissionError for the given filename.
func NewAdmissionError(filename string, cause error) *AdmissionError {
	return &AdmissionError{
		baseError: baseError{
			message:  fmt.Sprintf("cannot admit %q", filename),
			cause:    cause,
			severity: SeverityWarning,
		},
		Filename: filename,
	}
}

// WithProject adds a project name to the error context.
func (e *AdmissionError) WithProject(name string) *AdmissionError {
	e.Project = name
	return e
}

// Error returns the formatted error message.
func (e *AdmissionError) Error() string {
	prefix := "admission error"
	if e.Project != "" {
		prefix = fmt.Sprintf("admission error [project=%s]", e.Project)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *AdmissionError) Is(target error) bool {
	if _, ok := target.(*AdmissionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// BackendError represents errors from agent backend invocation.
// Backend errors are retryable by default: a failed invocation may
// succeed on a subsequent attempt.
//
// Example:
//
//	err := errors.NewBackendError("claude exited non-zero", cause).
//		WithTaskID("task-export-20260129-150000").
//		WithExitCode(1)
type BackendError struct {
	baseError
	TaskID   string
	ExitCode int
	Stderr   string
}

// NewBackendError creates a new BackendError.
func NewBackendError(message string, cause error) *BackendError {
	return &BackendError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: true,
		},
		ExitCode: -1, // -1 indicates not set
	}
}

// WithTaskID adds a task ID to the error context.
func (e *BackendError) WithTaskID(id string) *BackendError {
	e.TaskID = id
	return e
}

// WithExitCode adds the backend process exit code to the error context.
func (e *BackendError) WithExitCode(code int) *BackendError {
	e.ExitCode = code
	return e
}

// WithStderr adds captured stderr to the error context.
func (e *BackendError) WithStderr(stderr string) *BackendError {
	e.Stderr = stderr
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *BackendError) WithRetryable(r bool) *BackendError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *BackendError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	prefix := "backend error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("backend error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\nstderr: %s", msg, e.Stderr)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *BackendError) Is(target error) bool {
	if _, ok := target.(*BackendError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PersistenceError represents a state file that could not be read or
// written. Persistence errors are critical: the affected project's triad
// must stop rather than operate on unreliable state.
//
// Example:
//
//	err := errors.NewPersistenceError("queue state unreadable", cause).WithPath(path)
type PersistenceError struct {
	baseError
	Path    string
	Project string
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityCritical,
		},
	}
}

// WithPath adds a file path to the error context.
func (e *PersistenceError) WithPath(path string) *PersistenceError {
	e.Path = path
	return e
}

// WithProject adds a project name to the error context.
func (e *PersistenceError) WithProject(name string) *PersistenceError {
	e.Project = name
	return e
}

// Error returns the formatted error message.
func (e *PersistenceError) Error() string {
	var parts []string
	if e.Project != "" {
		parts = append(parts, fmt.Sprintf("project=%s", e.Project))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	prefix := "persistence error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("persistence error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PersistenceError) Is(target error) bool {
	if _, ok := target.(*PersistenceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("project", "alpha")
//	fmt.Println(err) // "project 'alpha' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:  fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity: SeverityWarning,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if errors.Is(target, ErrProjectNotFound) {
		return e.ResourceType == "project"
	}
	if errors.Is(target, ErrTaskNotFound) {
		return strings.HasSuffix(e.ResourceType, "task")
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("project", "alpha")
//	fmt.Println(err) // "project 'alpha' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:  fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity: SeverityWarning,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	if errors.Is(target, ErrProjectExists) {
		return e.ResourceType == "project"
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityWarning,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for backend", 30*time.Minute)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing TaskwardError with IsRetryable() returning true
//   - TimeoutError instances
//   - Errors wrapping ErrTimeout
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var twErr TaskwardError
	if As(err, &twErr) {
		return twErr.IsRetryable()
	}

	if Is(err, ErrTimeout) {
		return true
	}

	return false
}

// IsFatal returns true if the error requires stopping the affected
// project's triad rather than continuing on unreliable state.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var persistErr *PersistenceError
	if As(err, &persistErr) {
		return true
	}
	return Is(err, ErrStateCorrupted) || Is(err, ErrRegistryCorrupted)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TaskwardError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var twErr TaskwardError
	if As(err, &twErr) {
		return twErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
