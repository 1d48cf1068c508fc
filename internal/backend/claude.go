package backend

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/errors"
)

// killWaitDelay bounds how long we wait for output pipes to drain
// after the process group has been signalled.
const killWaitDelay = 10 * time.Second

// ClaudeBackend runs tasks through the Claude Code CLI in
// non-interactive print mode. The task document's full text is the
// prompt, and the project root is the working directory so the agent
// operates on the project's files.
type ClaudeBackend struct {
	command         string
	skipPermissions bool
}

// NewClaudeBackend creates a Claude backend from config.
func NewClaudeBackend(cfg config.ClaudeBackendConfig) *ClaudeBackend {
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	return &ClaudeBackend{
		command:         command,
		skipPermissions: cfg.SkipPermissions,
	}
}

func (c *ClaudeBackend) Name() string { return "claude" }

// args builds the CLI argument list for one invocation.
func (c *ClaudeBackend) args(prompt string) []string {
	args := []string{"--print"}
	if c.skipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	return append(args, prompt)
}

// Execute invokes the CLI and waits for it to exit. On context
// cancellation the whole process group is killed, so child processes
// spawned by the agent do not linger.
func (c *ClaudeBackend) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.TaskContent == "" {
		return nil, errors.NewValidationError("task content must not be empty").WithField("task_content")
	}

	cmd := exec.CommandContext(ctx, c.command, c.args(req.TaskContent)...)
	cmd.Dir = req.ProjectRoot

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

// runCommand configures the command to run in its own process group
// and to kill the whole group on cancellation.
func runCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killWaitDelay
}

// backendRunError classifies a failed invocation. A deadline or
// cancellation is reported distinctly so the executor can tell a
// timeout from an ordinary non-zero exit.
func backendRunError(ctx context.Context, err error, taskID, stderr string) error {
	cause := err
	switch ctx.Err() {
	case context.DeadlineExceeded:
		cause = errors.Join(errors.ErrTimeout, err)
	case context.Canceled:
		cause = errors.Join(errors.ErrCanceled, err)
	}

	be := errors.NewBackendError("backend invocation failed", cause).
		WithTaskID(taskID).
		WithStderr(stderr)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		be = be.WithExitCode(exitErr.ExitCode())
	}
	return be
}
