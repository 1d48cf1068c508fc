package backend

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/errors"
)

// CommandBackend runs tasks through an arbitrary external command.
// The task document's text is fed to the command on stdin, the
// project root is the working directory, and the task identity is
// exposed through environment variables.
type CommandBackend struct {
	command string
	args    []string
}

// NewCommandBackend creates a command backend from config.
func NewCommandBackend(cfg config.CommandBackendConfig) (*CommandBackend, error) {
	if cfg.Command == "" {
		return nil, errors.NewValidationError("command backend requires a command").
			WithField("backend.command.command")
	}
	return &CommandBackend{
		command: cfg.Command,
		args:    cfg.Args,
	}, nil
}

func (c *CommandBackend) Name() string { return "command" }

// Execute runs the configured command once for the task.
func (c *CommandBackend) Execute(ctx context.Context, req Request) (*Response, error) {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Dir = req.ProjectRoot
	cmd.Stdin = strings.NewReader(req.TaskContent)
	cmd.Env = append(os.Environ(),
		"TASKWARD_TASK_ID="+req.TaskID,
		"TASKWARD_TASK_FILE="+req.TaskPath,
		"TASKWARD_PROJECT_ROOT="+req.ProjectRoot,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runCommand(cmd)
	err := cmd.Run()

	if err != nil {
		return nil, backendRunError(ctx, err, req.TaskID, stderr.String())
	}

	return &Response{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}
