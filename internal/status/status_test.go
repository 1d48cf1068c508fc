package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tmccall/taskward/internal/errors"
	"github.com/tmccall/taskward/internal/queue"
	"github.com/tmccall/taskward/internal/registry"
	"github.com/tmccall/taskward/internal/task"
)

type testWorld struct {
	registry *registry.Registry
	projects map[string]registry.Project
}

func newTestWorld(t *testing.T, names ...string) *testWorld {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	w := &testWorld{registry: reg, projects: make(map[string]registry.Project)}
	for _, name := range names {
		dir := filepath.Join(t.TempDir(), name)
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatal(err)
		}
		p, err := reg.Register(dir, name)
		if err != nil {
			t.Fatal(err)
		}
		w.projects[name] = p
	}
	return w
}

func (w *testWorld) writeState(t *testing.T, project string, state queue.State) {
	t.Helper()
	p := w.projects[project]
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p.StateDir(), "queue_state.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func (w *testWorld) writeResult(t *testing.T, project string, result *task.Result) {
	t.Helper()
	p := w.projects[project]
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(p.ResultsDir(), result.TaskID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestQueueDepth(t *testing.T) {
	w := newTestWorld(t, "alpha")
	w.writeState(t, "alpha", queue.State{
		Queued:  []string{"task-a-20260101-100000", "task-b-20260101-100001"},
		Running: "task-r-20260101-095900",
	})

	c := NewClient(w.registry)
	depth, running, err := c.QueueDepth("alpha")
	if err != nil {
		t.Fatalf("QueueDepth: %v", err)
	}
	if depth != 2 {
		t.Errorf("depth = %d, want 2", depth)
	}
	if !running {
		t.Error("running indicator should be true")
	}
}

func TestQueueDepthEmptyProject(t *testing.T) {
	w := newTestWorld(t, "alpha")

	c := NewClient(w.registry)
	depth, running, err := c.QueueDepth("alpha")
	if err != nil {
		t.Fatalf("QueueDepth with no state file: %v", err)
	}
	if depth != 0 || running {
		t.Errorf("fresh project = (%d, %v), want (0, false)", depth, running)
	}
}

func TestQueueDepthUnknownProject(t *testing.T) {
	w := newTestWorld(t)

	c := NewClient(w.registry)
	_, _, err := c.QueueDepth("ghost")
	if !errors.Is(err, errors.ErrProjectNotFound) {
		t.Errorf("error should wrap ErrProjectNotFound, got %v", err)
	}
}

func TestTaskStatus(t *testing.T) {
	w := newTestWorld(t, "alpha", "beta")
	w.writeState(t, "alpha", queue.State{
		Queued:   []string{"task-queued-20260101-100000", "task-again-20260101-100001"},
		Running:  "task-running-20260101-095900",
		Attempts: map[string]int{"task-again-20260101-100001": 1},
	})
	w.writeResult(t, "beta", &task.Result{
		TaskID: "task-done-20260101-090000",
		Status: task.StatusCompleted,
		Stdout: "all good",
	})

	c := NewClient(w.registry)

	tests := []struct {
		taskID      string
		wantProject string
		wantStatus  task.Status
		wantResult  bool
	}{
		{"task-queued-20260101-100000", "alpha", task.StatusQueued, false},
		{"task-again-20260101-100001", "alpha", task.StatusRetrying, false},
		{"task-running-20260101-095900", "alpha", task.StatusRunning, false},
		{"task-done-20260101-090000", "beta", task.StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantStatus), func(t *testing.T) {
			info, err := c.TaskStatus(tt.taskID)
			if err != nil {
				t.Fatalf("TaskStatus(%s): %v", tt.taskID, err)
			}
			if info.Project != tt.wantProject {
				t.Errorf("Project = %q, want %q", info.Project, tt.wantProject)
			}
			if info.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", info.Status, tt.wantStatus)
			}
			if (info.Result != nil) != tt.wantResult {
				t.Errorf("Result presence = %v, want %v", info.Result != nil, tt.wantResult)
			}
		})
	}
}

func TestTaskStatusNotFound(t *testing.T) {
	w := newTestWorld(t, "alpha")

	c := NewClient(w.registry)
	_, err := c.TaskStatus("task-ghost-20260101-100000")
	if !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("error should wrap ErrTaskNotFound, got %v", err)
	}
}

func TestOverviewSorted(t *testing.T) {
	w := newTestWorld(t, "bravo", "alpha")
	w.writeState(t, "alpha", queue.State{Queued: []string{"task-a-20260101-100000"}})

	c := NewClient(w.registry)
	overview, err := c.Overview()
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(overview) != 2 {
		t.Fatalf("got %d projects, want 2", len(overview))
	}
	if overview[0].Project.Name != "alpha" || overview[1].Project.Name != "bravo" {
		t.Errorf("overview order = %q, %q", overview[0].Project.Name, overview[1].Project.Name)
	}
	if overview[0].Depth() != 1 {
		t.Errorf("alpha depth = %d, want 1", overview[0].Depth())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{-1, "-"},
		{1.23, "1.2s"},
		{59.9, "59.9s"},
		{60, "1m0s"},
		{125, "2m5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
