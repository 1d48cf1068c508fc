package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmccall/taskward/internal/backend"
	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/logging"
	"github.com/tmccall/taskward/internal/registry"
	"github.com/tmccall/taskward/internal/task"
)

// blockingBackend completes instantly unless a project is held.
type blockingBackend struct {
	mu   sync.Mutex
	held map[string]chan struct{} // project root -> release channel
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{held: make(map[string]chan struct{})}
}

func (b *blockingBackend) hold(projectRoot string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{})
	b.held[projectRoot] = ch
	return ch
}

func (b *blockingBackend) Name() string { return "fake" }

func (b *blockingBackend) Execute(ctx context.Context, req backend.Request) (*backend.Response, error) {
	b.mu.Lock()
	release := b.held[req.ProjectRoot]
	b.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &backend.Response{Stdout: "done: " + req.TaskID}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Enabled = false
	cfg.Executor.CooldownMs = 1
	return cfg
}

func newTestOrchestrator(t *testing.T, b backend.Backend) (*Orchestrator, *registry.Registry) {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	o, err := New(testConfig(), reg, b, logging.NopLogger())
	if err != nil {
		t.Fatal(err)
	}
	return o, reg
}

func registerProject(t *testing.T, reg *registry.Registry, name string) registry.Project {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	p, err := reg.Register(dir, name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func dropTask(t *testing.T, p registry.Project, taskID string) {
	t.Helper()
	name := task.DefaultPattern().Filename(taskID)
	tmp := filepath.Join(p.TasksDir(), "."+name+".tmp")
	if err := os.WriteFile(tmp, []byte("work"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(p.TasksDir(), name)); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func resultExists(p registry.Project, taskID string) bool {
	_, err := os.Stat(filepath.Join(p.ResultsDir(), taskID+".json"))
	return err == nil
}

func TestReconcileStartsEnabledProjects(t *testing.T) {
	o, reg := newTestOrchestrator(t, newBlockingBackend())
	registerProject(t, reg, "alpha")
	registerProject(t, reg, "bravo")
	if _, err := reg.SetEnabled("bravo", false); err != nil {
		t.Fatal(err)
	}

	o.Reconcile()
	defer o.shutdown()

	names := o.Projects()
	if !slices.Contains(names, "alpha") {
		t.Error("alpha triad should be running")
	}
	if slices.Contains(names, "bravo") {
		t.Error("disabled bravo should have no triad")
	}
}

func TestReconcileIdempotent(t *testing.T) {
	o, reg := newTestOrchestrator(t, newBlockingBackend())
	registerProject(t, reg, "alpha")

	for i := 0; i < 3; i++ {
		o.Reconcile()
	}
	defer o.shutdown()

	if names := o.Projects(); len(names) != 1 {
		t.Errorf("Projects = %v after repeated reconcile, want exactly one", names)
	}
}

func TestReconcileStopsDisabledProject(t *testing.T) {
	o, reg := newTestOrchestrator(t, newBlockingBackend())
	registerProject(t, reg, "alpha")

	o.Reconcile()
	defer o.shutdown()
	if !slices.Contains(o.Projects(), "alpha") {
		t.Fatal("alpha should be running")
	}

	if _, err := reg.SetEnabled("alpha", false); err != nil {
		t.Fatal(err)
	}
	o.Reconcile()

	if slices.Contains(o.Projects(), "alpha") {
		t.Error("alpha triad should be stopped after disable")
	}
}

func TestEndToEndTaskExecution(t *testing.T) {
	o, reg := newTestOrchestrator(t, newBlockingBackend())
	p := registerProject(t, reg, "alpha")

	o.Reconcile()
	defer o.shutdown()

	dropTask(t, p, "task-export-20260129-150000")

	waitFor(t, "result file", func() bool {
		return resultExists(p, "task-export-20260129-150000")
	})
}

func TestBlockedProjectDoesNotDelayOthers(t *testing.T) {
	b := newBlockingBackend()
	o, reg := newTestOrchestrator(t, b)
	alpha := registerProject(t, reg, "alpha")
	beta := registerProject(t, reg, "beta")

	release := b.hold(alpha.Path)
	defer close(release)

	o.Reconcile()
	defer o.shutdown()

	dropTask(t, alpha, "task-slow-20260101-100000")
	for _, id := range []string{
		"task-one-20260101-100001",
		"task-two-20260101-100002",
		"task-three-20260101-100003",
	} {
		dropTask(t, beta, id)
	}

	// All of beta's tasks complete while alpha's single task blocks.
	waitFor(t, "beta results", func() bool {
		return resultExists(beta, "task-one-20260101-100001") &&
			resultExists(beta, "task-two-20260101-100002") &&
			resultExists(beta, "task-three-20260101-100003")
	})
	if resultExists(alpha, "task-slow-20260101-100000") {
		t.Error("alpha's blocked task should not have a result yet")
	}
}

func TestRunReactsToRegistryRewrite(t *testing.T) {
	o, reg := newTestOrchestrator(t, newBlockingBackend())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = o.Run(ctx)
		close(runDone)
	}()

	// An out-of-process admin command writes the registry file; the
	// daemon must pick the project up without being told directly.
	registerProject(t, reg, "alpha")

	waitFor(t, "alpha triad", func() bool {
		return slices.Contains(o.Projects(), "alpha")
	})

	cancel()
	select {
	case <-runDone:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not exit on cancellation")
	}
	if len(o.Projects()) != 0 {
		t.Error("all triads should be stopped after shutdown")
	}
}

func TestUnregisterWhileTaskRunning(t *testing.T) {
	b := newBlockingBackend()
	o, reg := newTestOrchestrator(t, b)
	p := registerProject(t, reg, "alpha")
	release := b.hold(p.Path)

	o.Reconcile()
	dropTask(t, p, "task-current-20260101-100000")
	dropTask(t, p, "task-later-20260101-100001")

	// Wait until the first task is mid-execution.
	waitFor(t, "task running", func() bool {
		data, err := os.ReadFile(filepath.Join(p.StateDir(), "queue_state.json"))
		return err == nil && len(data) > 0 &&
			containsRunning(data, "task-current-20260101-100000")
	})

	if err := reg.Unregister("alpha"); err != nil {
		t.Fatal(err)
	}

	// Reconcile blocks stopping the triad until the current task
	// finishes, so release the backend from another goroutine.
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	o.Reconcile()

	// The in-flight task finished and wrote its result; the queued
	// one never started.
	if !resultExists(p, "task-current-20260101-100000") {
		t.Error("in-flight task should have completed")
	}
	if resultExists(p, "task-later-20260101-100001") {
		t.Error("no new task may start after unregistration")
	}
}

func containsRunning(stateJSON []byte, taskID string) bool {
	return strings.Contains(string(stateJSON), `"running": "`+taskID+`"`)
}
