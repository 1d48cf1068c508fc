// Package status is the read-only query surface over registry, queue,
// and result state. It works entirely from persisted files, so it can
// run in a separate process from the daemon and never coordinates
// with, or mutates, the running triads.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tmccall/taskward/internal/errors"
	"github.com/tmccall/taskward/internal/queue"
	"github.com/tmccall/taskward/internal/registry"
	"github.com/tmccall/taskward/internal/task"
)

// ProjectStatus is a point-in-time view of one project's queue.
type ProjectStatus struct {
	Project registry.Project
	Queued  []string
	Running string
}

// Depth returns the number of queued tasks.
func (s ProjectStatus) Depth() int {
	return len(s.Queued)
}

// TaskInfo resolves one task ID to its current state. Result is
// non-nil only for terminal tasks.
type TaskInfo struct {
	TaskID  string
	Project string
	Status  task.Status
	Result  *task.Result
}

// Client answers status queries from persisted state.
type Client struct {
	registry *registry.Registry
}

// NewClient creates a status client over the given registry.
func NewClient(reg *registry.Registry) *Client {
	return &Client{registry: reg}
}

// QueueDepth returns the queued count and whether a task is running.
// Returns an error wrapping ErrProjectNotFound for unknown projects.
func (c *Client) QueueDepth(project string) (int, bool, error) {
	s, err := c.ProjectStatus(project)
	if err != nil {
		return 0, false, err
	}
	return s.Depth(), s.Running != "", nil
}

// ProjectStatus reads one project's queue state.
func (c *Client) ProjectStatus(project string) (*ProjectStatus, error) {
	p, ok := c.registry.Get(project)
	if !ok {
		return nil, errors.NewNotFoundError("project", project)
	}

	state, err := queue.ReadState(p.StateDir())
	if err != nil {
		return nil, err
	}
	return &ProjectStatus{
		Project: p,
		Queued:  state.Queued,
		Running: state.Running,
	}, nil
}

// Overview reads the queue state of every registered project, sorted
// by project name.
func (c *Client) Overview() ([]ProjectStatus, error) {
	var out []ProjectStatus
	for _, p := range c.registry.List() {
		s, err := c.ProjectStatus(p.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// TaskStatus resolves a task ID across all registered projects: the
// terminal Result if one exists, otherwise the in-flight status
// derived from queue state. Returns an error wrapping ErrTaskNotFound
// when no project knows the ID.
func (c *Client) TaskStatus(taskID string) (*TaskInfo, error) {
	for _, p := range c.registry.List() {
		info, ok, err := c.taskInProject(p, taskID)
		if err != nil {
			return nil, err
		}
		if ok {
			return info, nil
		}
	}
	return nil, errors.NewNotFoundError("task", taskID)
}

func (c *Client) taskInProject(p registry.Project, taskID string) (*TaskInfo, bool, error) {
	if result, err := readResult(p, taskID); err == nil {
		return &TaskInfo{
			TaskID:  taskID,
			Project: p.Name,
			Status:  result.Status,
			Result:  result,
		}, true, nil
	} else if !errors.Is(err, errors.ErrTaskNotFound) {
		return nil, false, err
	}

	state, err := queue.ReadState(p.StateDir())
	if err != nil {
		return nil, false, err
	}

	if state.Running == taskID {
		return &TaskInfo{TaskID: taskID, Project: p.Name, Status: task.StatusRunning}, true, nil
	}
	for _, queued := range state.Queued {
		if queued != taskID {
			continue
		}
		status := task.StatusQueued
		if state.Attempts[taskID] > 0 {
			status = task.StatusRetrying
		}
		return &TaskInfo{TaskID: taskID, Project: p.Name, Status: status}, true, nil
	}
	return nil, false, nil
}

// readResult loads a terminal result without provisioning the results
// directory, keeping the status path strictly read-only.
func readResult(p registry.Project, taskID string) (*task.Result, error) {
	path := filepath.Join(p.ResultsDir(), taskID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("task", taskID)
		}
		return nil, errors.NewPersistenceError("read result", err).WithPath(path)
	}

	var result task.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.NewPersistenceError("result is not valid JSON",
			errors.Join(errors.ErrStateCorrupted, err)).WithPath(path)
	}
	return &result, nil
}

// FormatDuration renders a result duration for human output.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	return fmt.Sprintf("%dm%ds", int(seconds)/60, int(seconds)%60)
}
