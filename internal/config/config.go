package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Taskward configuration
type Config struct {
	Executor ExecutorConfig `mapstructure:"executor"`
	Observer ObserverConfig `mapstructure:"observer"`
	Task     TaskConfig     `mapstructure:"task"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
}

// ExecutorConfig controls per-project task execution behavior
type ExecutorConfig struct {
	// MaxRetries is the retry budget per task. A task whose backend
	// invocation fails (or that was running during a crash) is re-admitted
	// until retries are exhausted, then marked failed. (default: 2)
	MaxRetries int `mapstructure:"max_retries"`
	// TaskTimeoutMinutes is the maximum runtime per backend invocation
	// before it is cancelled and the attempt treated as a failure
	// (0 = no timeout)
	TaskTimeoutMinutes int `mapstructure:"task_timeout_minutes"`
	// CooldownMs is a short pause after each task completes before the
	// next one starts (default: 500)
	CooldownMs int `mapstructure:"cooldown_ms"`
}

// ObserverConfig controls how project intake directories are watched
type ObserverConfig struct {
	// Mode selects the event source: "notify" uses native filesystem
	// notifications, "poll" scans the intake directory periodically
	// (default: "notify")
	Mode string `mapstructure:"mode"`
	// PollIntervalSeconds is the scan interval when Mode is "poll";
	// also used as the rescan safety net in notify mode (default: 5)
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

// TaskConfig controls the task filename contract
type TaskConfig struct {
	// Prefix is the literal leading segment of task filenames (default: "task")
	Prefix string `mapstructure:"prefix"`
	// Extension is the required task file extension (default: ".md")
	Extension string `mapstructure:"extension"`
}

// BackendConfig selects and configures the agent execution backend
type BackendConfig struct {
	// Kind is the backend implementation: "claude" or "command"
	// (default: "claude")
	Kind string `mapstructure:"kind"`
	// Claude configures the Claude CLI backend
	Claude ClaudeBackendConfig `mapstructure:"claude"`
	// Command configures the generic command backend
	Command CommandBackendConfig `mapstructure:"command"`
}

// ClaudeBackendConfig configures invocation of the Claude CLI
type ClaudeBackendConfig struct {
	// Command is the executable to invoke (default: "claude")
	Command string `mapstructure:"command"`
	// SkipPermissions passes --dangerously-skip-permissions (default: true,
	// tasks run unattended)
	SkipPermissions bool `mapstructure:"skip_permissions"`
}

// CommandBackendConfig configures an arbitrary command backend.
// The command receives the task document on stdin and the task's ID,
// file path, and project root in TASKWARD_* environment variables.
type CommandBackendConfig struct {
	// Command is the executable to invoke
	Command string `mapstructure:"command"`
	// Args are fixed arguments passed on every invocation
	Args []string `mapstructure:"args"`
}

// LoggingConfig controls structured logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// PathsConfig controls where Taskward stores daemon-level data
type PathsConfig struct {
	// DataDir is where the project registry and daemon logs live.
	// If empty, defaults to the config directory.
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
}

// TaskTimeout returns the per-task timeout as a time.Duration (0 means disabled)
func (c *ExecutorConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutMinutes) * time.Minute
}

// Cooldown returns the inter-task pause as a time.Duration
func (c *ExecutorConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// PollInterval returns the directory scan interval as a time.Duration
func (c *ObserverConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ResolveDataDir returns the resolved data directory path.
// If DataDir is empty, it returns the user config directory.
// If DataDir starts with ~, it expands to the user's home directory.
func (p *PathsConfig) ResolveDataDir() string {
	if p.DataDir == "" {
		return ConfigDir()
	}

	path := p.DataDir
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return path
}

// RegistryFile returns the path of the persisted project registry.
func (p *PathsConfig) RegistryFile() string {
	return filepath.Join(p.ResolveDataDir(), "registry.json")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Executor: ExecutorConfig{
			MaxRetries:         2,
			TaskTimeoutMinutes: 0, // Disabled by default (agent tasks can be slow)
			CooldownMs:         500,
		},
		Observer: ObserverConfig{
			Mode:                "notify",
			PollIntervalSeconds: 5,
		},
		Task: TaskConfig{
			Prefix:    "task",
			Extension: ".md",
		},
		Backend: BackendConfig{
			Kind: "claude",
			Claude: ClaudeBackendConfig{
				Command:         "claude",
				SkipPermissions: true,
			},
			Command: CommandBackendConfig{
				Command: "",
				Args:    []string{},
			},
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Paths: PathsConfig{
			DataDir: "", // Empty means use the config directory
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Executor defaults
	viper.SetDefault("executor.max_retries", defaults.Executor.MaxRetries)
	viper.SetDefault("executor.task_timeout_minutes", defaults.Executor.TaskTimeoutMinutes)
	viper.SetDefault("executor.cooldown_ms", defaults.Executor.CooldownMs)

	// Observer defaults
	viper.SetDefault("observer.mode", defaults.Observer.Mode)
	viper.SetDefault("observer.poll_interval_seconds", defaults.Observer.PollIntervalSeconds)

	// Task defaults
	viper.SetDefault("task.prefix", defaults.Task.Prefix)
	viper.SetDefault("task.extension", defaults.Task.Extension)

	// Backend defaults
	viper.SetDefault("backend.kind", defaults.Backend.Kind)
	viper.SetDefault("backend.claude.command", defaults.Backend.Claude.Command)
	viper.SetDefault("backend.claude.skip_permissions", defaults.Backend.Claude.SkipPermissions)
	viper.SetDefault("backend.command.command", defaults.Backend.Command.Command)
	viper.SetDefault("backend.command.args", defaults.Backend.Command.Args)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Paths defaults
	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskward")
	}
	// Fall back to ~/.config/taskward
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskward"
	}
	return filepath.Join(home, ".config", "taskward")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidBackendKinds returns the list of valid backend kinds
func ValidBackendKinds() []string {
	return []string{"claude", "command"}
}

// ValidObserverModes returns the list of valid observer modes
func ValidObserverModes() []string {
	return []string{"notify", "poll"}
}
