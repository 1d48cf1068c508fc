// Package backend abstracts the external engine that performs the
// actual work a task describes. The engine is treated as an opaque,
// possibly slow, possibly failing black box: it consumes the task
// document with the project root as working directory and reports
// output plus success or failure.
package backend

import (
	"context"
	"strings"

	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/errors"
)

// Request carries one task invocation to the backend.
type Request struct {
	// TaskID correlates logs and results across retries.
	TaskID string

	// TaskPath is the absolute path of the task document.
	TaskPath string

	// TaskContent is the full text of the task document.
	TaskContent string

	// ProjectRoot becomes the backend's working directory.
	ProjectRoot string
}

// Response is what a backend reports on success.
type Response struct {
	// Stdout is the backend's captured standard output.
	Stdout string

	// Stderr is the backend's captured standard error.
	Stderr string

	// Summary is an optional short account of what was done.
	Summary string
}

// Backend executes task documents.
type Backend interface {
	// Name identifies the backend kind for logs and status output.
	Name() string

	// Execute runs one task to completion. A non-nil error means the
	// attempt failed; the executor decides whether to retry. Execute
	// must honor ctx cancellation with best-effort termination of
	// whatever it started.
	Execute(ctx context.Context, req Request) (*Response, error)
}

// ErrUnknownBackend is returned when the configured backend kind is
// unsupported.
var ErrUnknownBackend = errors.New("unknown backend kind")

// NewFromConfig builds a Backend from configuration.
func NewFromConfig(cfg *config.Config) (Backend, error) {
	if cfg == nil {
		return nil, errors.New("missing config")
	}

	switch strings.ToLower(cfg.Backend.Kind) {
	case "claude", "":
		return NewClaudeBackend(cfg.Backend.Claude), nil
	case "command":
		return NewCommandBackend(cfg.Backend.Command)
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%s", cfg.Backend.Kind)
	}
}
