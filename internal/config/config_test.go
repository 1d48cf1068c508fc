package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Executor.MaxRetries != 2 {
		t.Errorf("Executor.MaxRetries = %d, want 2", cfg.Executor.MaxRetries)
	}
	if cfg.Executor.TaskTimeoutMinutes != 0 {
		t.Errorf("Executor.TaskTimeoutMinutes = %d, want 0", cfg.Executor.TaskTimeoutMinutes)
	}
	if cfg.Executor.CooldownMs != 500 {
		t.Errorf("Executor.CooldownMs = %d, want 500", cfg.Executor.CooldownMs)
	}
	if cfg.Observer.Mode != "notify" {
		t.Errorf("Observer.Mode = %q, want %q", cfg.Observer.Mode, "notify")
	}
	if cfg.Task.Prefix != "task" {
		t.Errorf("Task.Prefix = %q, want %q", cfg.Task.Prefix, "task")
	}
	if cfg.Task.Extension != ".md" {
		t.Errorf("Task.Extension = %q, want %q", cfg.Task.Extension, ".md")
	}
	if cfg.Backend.Kind != "claude" {
		t.Errorf("Backend.Kind = %q, want %q", cfg.Backend.Kind, "claude")
	}
	if !cfg.Backend.Claude.SkipPermissions {
		t.Error("Backend.Claude.SkipPermissions should default to true")
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should default to true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.Executor.TaskTimeoutMinutes = 30
	cfg.Executor.CooldownMs = 250
	cfg.Observer.PollIntervalSeconds = 10

	if got := cfg.Executor.TaskTimeout(); got != 30*time.Minute {
		t.Errorf("TaskTimeout() = %v, want 30m", got)
	}
	if got := cfg.Executor.Cooldown(); got != 250*time.Millisecond {
		t.Errorf("Cooldown() = %v, want 250ms", got)
	}
	if got := cfg.Observer.PollInterval(); got != 10*time.Second {
		t.Errorf("PollInterval() = %v, want 10s", got)
	}

	cfg.Executor.TaskTimeoutMinutes = 0
	if got := cfg.Executor.TaskTimeout(); got != 0 {
		t.Errorf("TaskTimeout() with 0 minutes = %v, want 0", got)
	}
}

func TestResolveDataDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name    string
		dataDir string
		want    string
	}{
		{
			name:    "empty falls back to config dir",
			dataDir: "",
			want:    filepath.Join(home, ".config", "taskward"),
		},
		{
			name:    "tilde expansion",
			dataDir: "~/taskward-data",
			want:    filepath.Join(home, "taskward-data"),
		},
		{
			name:    "bare tilde",
			dataDir: "~",
			want:    home,
		},
		{
			name:    "absolute path untouched",
			dataDir: "/var/lib/taskward",
			want:    "/var/lib/taskward",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PathsConfig{DataDir: tt.dataDir}
			if got := p.ResolveDataDir(); got != tt.want {
				t.Errorf("ResolveDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistryFile(t *testing.T) {
	p := &PathsConfig{DataDir: "/var/lib/taskward"}
	want := filepath.Join("/var/lib/taskward", "registry.json")
	if got := p.RegistryFile(); got != want {
		t.Errorf("RegistryFile() = %q, want %q", got, want)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("XDG_CONFIG_HOME takes precedence", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		want := filepath.Join("/tmp/xdg", "taskward")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to home config", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		want := filepath.Join(home, ".config", "taskward")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestLoadWithDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with pure defaults failed: %v", err)
	}
	if cfg.Executor.MaxRetries != 2 {
		t.Errorf("Executor.MaxRetries = %d, want 2", cfg.Executor.MaxRetries)
	}
	if cfg.Backend.Kind != "claude" {
		t.Errorf("Backend.Kind = %q, want %q", cfg.Backend.Kind, "claude")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("executor.max_retries", -3)
	viper.Set("observer.mode", "bogus")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject invalid configuration")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("executor.max_retries", 5)
	viper.Set("backend.kind", "command")
	viper.Set("backend.command.command", "/bin/echo")
	viper.Set("backend.command.args", []string{"hello"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Executor.MaxRetries != 5 {
		t.Errorf("Executor.MaxRetries = %d, want 5", cfg.Executor.MaxRetries)
	}
	if cfg.Backend.Kind != "command" {
		t.Errorf("Backend.Kind = %q, want %q", cfg.Backend.Kind, "command")
	}
	if cfg.Backend.Command.Command != "/bin/echo" {
		t.Errorf("Backend.Command.Command = %q, want %q", cfg.Backend.Command.Command, "/bin/echo")
	}
}
