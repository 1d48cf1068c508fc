// Package executor runs one project's admitted tasks strictly in
// order. The executor is the single point of blocking within a
// project: it suspends while the backend works, which is what
// enforces sequential semantics. Projects run their executors
// concurrently and independently.
package executor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmccall/taskward/internal/backend"
	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/errors"
	"github.com/tmccall/taskward/internal/logging"
	"github.com/tmccall/taskward/internal/queue"
	"github.com/tmccall/taskward/internal/task"
)

// Executor drains a project's queue, invoking the backend once per
// attempt and writing exactly one Result per terminal outcome.
type Executor struct {
	project     string
	projectRoot string
	tasksDir    string
	pattern     *task.Pattern
	queue       *queue.Queue
	backend     backend.Backend
	results     *task.ResultStore
	log         *logging.Logger

	maxRetries int
	timeout    time.Duration
	cooldown   time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// New creates an Executor for one project. Call Start to begin the loop.
func New(project, projectRoot, tasksDir string, pattern *task.Pattern, q *queue.Queue, b backend.Backend,
	results *task.ResultStore, cfg config.ExecutorConfig, log *logging.Logger) *Executor {
	return &Executor{
		project:     project,
		projectRoot: projectRoot,
		tasksDir:    tasksDir,
		pattern:     pattern,
		queue:       q,
		backend:     b,
		results:     results,
		log:         log.WithComponent("executor").WithProject(project),
		maxRetries:  cfg.MaxRetries,
		timeout:     cfg.TaskTimeout(),
		cooldown:    cfg.Cooldown(),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the execution loop in its own goroutine.
func (e *Executor) Start() {
	go e.run()
}

// Stop signals the loop to finish its current task, if any, and exit
// without starting another. It blocks until the loop has exited.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	<-e.done
}

// Done returns a channel closed when the loop has exited, whether
// from Stop or from a fatal persistence error.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Err returns the fatal error that stopped the loop, or nil.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Executor) run() {
	defer close(e.done)

	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		taskID, err := e.queue.PopForExecution()
		if err != nil {
			e.fatal(err)
			return
		}
		if taskID == "" {
			select {
			case <-e.stopCh:
				return
			case <-e.queue.Notify():
			}
			continue
		}

		if err := e.execute(taskID); err != nil {
			e.fatal(err)
			return
		}

		// Breathing room between tasks so a hot queue does not spin
		// the backend back to back.
		if e.cooldown > 0 {
			select {
			case <-e.stopCh:
				return
			case <-time.After(e.cooldown):
			}
		}
	}
}

// fatal records the error that stopped the loop. Only persistence
// failures land here; operating on unreliable state risks duplicate
// or lost execution, so the project's loop halts loudly.
func (e *Executor) fatal(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
	e.log.Error("executor halted", "error", err)
}

// execute runs one attempt of one task. The returned error is only
// non-nil for queue persistence failures; backend failures are
// handled via the retry state machine.
func (e *Executor) execute(taskID string) error {
	attemptID := uuid.NewString()
	attempts := e.queue.Attempts(taskID)
	log := e.log.WithTask(taskID).With("attempt_id", attemptID)

	sourcePath := e.pattern.Filename(taskID)
	content, err := os.ReadFile(e.taskPath(taskID))
	if err != nil {
		log.Error("task document unreadable", "file", sourcePath, "error", err)
		return e.finish(taskID, &task.Result{
			TaskID:     taskID,
			AttemptID:  attemptID,
			Status:     task.StatusFailed,
			RetryCount: attempts,
			Error:      "task document unreadable: " + err.Error(),
		}, time.Now().UTC(), time.Now().UTC())
	}

	startedAt := time.Now().UTC()
	log.Info("task running", "retry_count", attempts)

	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, execErr := e.backend.Execute(ctx, backend.Request{
		TaskID:      taskID,
		TaskPath:    e.taskPath(taskID),
		TaskContent: string(content),
		ProjectRoot: e.projectRoot,
	})
	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt)

	if execErr == nil {
		log.Info("task completed", "duration_seconds", duration.Seconds())
		return e.finish(taskID, &task.Result{
			TaskID:          taskID,
			AttemptID:       attemptID,
			Status:          task.StatusCompleted,
			Stdout:          resp.Stdout,
			Stderr:          resp.Stderr,
			Summary:         resp.Summary,
			DurationSeconds: duration.Seconds(),
			RetryCount:      attempts,
		}, startedAt, completedAt)
	}

	if errors.IsRetryable(execErr) && attempts < e.maxRetries {
		count, err := e.queue.Retry(taskID)
		if err != nil {
			return err
		}
		log.Warn("task retrying", "retry_count", count, "error", execErr)
		return nil
	}

	log.Error("task failed", "retry_count", attempts, "error", execErr)
	failed := &task.Result{
		TaskID:          taskID,
		AttemptID:       attemptID,
		Status:          task.StatusFailed,
		DurationSeconds: duration.Seconds(),
		RetryCount:      attempts,
		Error:           execErr.Error(),
	}
	var be *errors.BackendError
	if errors.As(execErr, &be) {
		failed.Stderr = be.Stderr
	}
	return e.finish(taskID, failed, startedAt, completedAt)
}

// finish writes the terminal Result and clears the running slot, in
// that order: the ordering guarantee is that task N's Result exists
// before task N+1 can transition to running.
func (e *Executor) finish(taskID string, result *task.Result, startedAt, completedAt time.Time) error {
	result.StartedAt = &startedAt
	result.CompletedAt = &completedAt

	if err := e.results.Write(result); err != nil {
		return err
	}
	return e.queue.Complete(taskID)
}

func (e *Executor) taskPath(taskID string) string {
	return filepath.Join(e.tasksDir, e.pattern.Filename(taskID))
}
