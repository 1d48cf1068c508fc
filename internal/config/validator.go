package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "executor.max_retries")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// taskPrefixRegex validates task filename prefix characters.
// The prefix must not contain the separator or glob metacharacters.
var taskPrefixRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateExecutor()...)
	errors = append(errors, c.validateObserver()...)
	errors = append(errors, c.validateTask()...)
	errors = append(errors, c.validateBackend()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateExecutor validates the ExecutorConfig
func (c *Config) validateExecutor() []ValidationError {
	var errors []ValidationError

	if c.Executor.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.max_retries",
			Value:   c.Executor.MaxRetries,
			Message: "must be non-negative",
		})
	}

	if c.Executor.TaskTimeoutMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.task_timeout_minutes",
			Value:   c.Executor.TaskTimeoutMinutes,
			Message: "must be non-negative (0 disables the timeout)",
		})
	}

	if c.Executor.CooldownMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.cooldown_ms",
			Value:   c.Executor.CooldownMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateObserver validates the ObserverConfig
func (c *Config) validateObserver() []ValidationError {
	var errors []ValidationError

	if c.Observer.Mode != "" && !slices.Contains(ValidObserverModes(), c.Observer.Mode) {
		errors = append(errors, ValidationError{
			Field:   "observer.mode",
			Value:   c.Observer.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidObserverModes(), ", ")),
		})
	}

	if c.Observer.PollIntervalSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "observer.poll_interval_seconds",
			Value:   c.Observer.PollIntervalSeconds,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateTask validates the TaskConfig
func (c *Config) validateTask() []ValidationError {
	var errors []ValidationError

	if !taskPrefixRegex.MatchString(c.Task.Prefix) {
		errors = append(errors, ValidationError{
			Field:   "task.prefix",
			Value:   c.Task.Prefix,
			Message: "must start with a letter and contain only letters, digits, and underscores",
		})
	}

	if !strings.HasPrefix(c.Task.Extension, ".") || len(c.Task.Extension) < 2 {
		errors = append(errors, ValidationError{
			Field:   "task.extension",
			Value:   c.Task.Extension,
			Message: "must start with a dot followed by at least one character",
		})
	}

	return errors
}

// validateBackend validates the BackendConfig
func (c *Config) validateBackend() []ValidationError {
	var errors []ValidationError

	if c.Backend.Kind != "" && !slices.Contains(ValidBackendKinds(), c.Backend.Kind) {
		errors = append(errors, ValidationError{
			Field:   "backend.kind",
			Value:   c.Backend.Kind,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackendKinds(), ", ")),
		})
	}

	if c.Backend.Kind == "command" && c.Backend.Command.Command == "" {
		errors = append(errors, ValidationError{
			Field:   "backend.command.command",
			Value:   c.Backend.Command.Command,
			Message: "must be set when backend.kind is \"command\"",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
