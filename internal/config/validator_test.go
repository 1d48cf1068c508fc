package config

import (
	"strings"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate cleanly, got %d errors: %v", len(errs), errs)
	}
}

func TestValidateExecutor(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "negative max retries",
			mutate:    func(c *Config) { c.Executor.MaxRetries = -1 },
			wantField: "executor.max_retries",
		},
		{
			name:      "negative timeout",
			mutate:    func(c *Config) { c.Executor.TaskTimeoutMinutes = -5 },
			wantField: "executor.task_timeout_minutes",
		},
		{
			name:      "negative cooldown",
			mutate:    func(c *Config) { c.Executor.CooldownMs = -100 },
			wantField: "executor.cooldown_ms",
		},
		{
			name:   "zero retries is valid",
			mutate: func(c *Config) { c.Executor.MaxRetries = 0 },
		},
		{
			name:   "zero timeout disables",
			mutate: func(c *Config) { c.Executor.TaskTimeoutMinutes = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if !hasFieldError(errs, tt.wantField) {
				t.Errorf("expected error for field %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateObserver(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown mode",
			mutate:    func(c *Config) { c.Observer.Mode = "inotify" },
			wantField: "observer.mode",
		},
		{
			name:      "zero poll interval",
			mutate:    func(c *Config) { c.Observer.PollIntervalSeconds = 0 },
			wantField: "observer.poll_interval_seconds",
		},
		{
			name:   "poll mode is valid",
			mutate: func(c *Config) { c.Observer.Mode = "poll" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if !hasFieldError(errs, tt.wantField) {
				t.Errorf("expected error for field %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateTask(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		extension string
		wantField string
	}{
		{name: "defaults", prefix: "task", extension: ".md"},
		{name: "underscored prefix", prefix: "my_task", extension: ".txt"},
		{name: "empty prefix", prefix: "", extension: ".md", wantField: "task.prefix"},
		{name: "prefix with dash", prefix: "my-task", extension: ".md", wantField: "task.prefix"},
		{name: "prefix starting with digit", prefix: "1task", extension: ".md", wantField: "task.prefix"},
		{name: "extension without dot", prefix: "task", extension: "md", wantField: "task.extension"},
		{name: "bare dot extension", prefix: "task", extension: ".", wantField: "task.extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Task.Prefix = tt.prefix
			cfg.Task.Extension = tt.extension
			errs := cfg.Validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if !hasFieldError(errs, tt.wantField) {
				t.Errorf("expected error for field %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateBackend(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		cfg := Default()
		cfg.Backend.Kind = "gpt"
		if !hasFieldError(cfg.Validate(), "backend.kind") {
			t.Error("expected error for backend.kind")
		}
	})

	t.Run("command kind requires command", func(t *testing.T) {
		cfg := Default()
		cfg.Backend.Kind = "command"
		cfg.Backend.Command.Command = ""
		if !hasFieldError(cfg.Validate(), "backend.command.command") {
			t.Error("expected error for backend.command.command")
		}
	})

	t.Run("command kind with command is valid", func(t *testing.T) {
		cfg := Default()
		cfg.Backend.Kind = "command"
		cfg.Backend.Command.Command = "/usr/local/bin/runner"
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "invalid level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
		{
			name:   "uppercase level is accepted",
			mutate: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
		{
			name:      "negative max size",
			mutate:    func(c *Config) { c.Logging.MaxSizeMB = -1 },
			wantField: "logging.max_size_mb",
		},
		{
			name:      "negative max backups",
			mutate:    func(c *Config) { c.Logging.MaxBackups = -1 },
			wantField: "logging.max_backups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if !hasFieldError(errs, tt.wantField) {
				t.Errorf("expected error for field %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidationErrorsError(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var errs ValidationErrors
		if got := errs.Error(); got != "" {
			t.Errorf("empty ValidationErrors.Error() = %q, want empty", got)
		}
	})

	t.Run("single", func(t *testing.T) {
		errs := ValidationErrors{{Field: "executor.max_retries", Value: -1, Message: "must be non-negative"}}
		got := errs.Error()
		if !strings.Contains(got, "executor.max_retries") || !strings.Contains(got, "-1") {
			t.Errorf("unexpected error string: %q", got)
		}
		if strings.Contains(got, "validation errors") {
			t.Errorf("single error should not use multi-error format: %q", got)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "a", Value: 1, Message: "bad"},
			{Field: "b", Value: 2, Message: "worse"},
		}
		got := errs.Error()
		if !strings.Contains(got, "2 validation errors") {
			t.Errorf("expected multi-error header, got %q", got)
		}
	})
}

func hasFieldError(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
