// Package queue implements the per-project FIFO of admitted tasks.
// Every mutation is persisted by atomically replacing the queue state
// file, so a crash at any point leaves either the previous or the new
// fully-written version on disk. The persisted document also carries
// per-task attempt counts so the retry budget survives restarts.
package queue

import (
	"slices"
	"sync"

	"github.com/tmccall/taskward/internal/errors"
	"github.com/tmccall/taskward/internal/task"
)

// Queue is one project's FIFO of pending task IDs plus the ID of the
// task currently running, or empty. All methods are safe for
// concurrent use via an internal mutex.
type Queue struct {
	mu       sync.Mutex
	project  string
	stateDir string
	results  *task.ResultStore

	queued   []string
	running  string
	attempts map[string]int

	notify chan struct{}
}

// Project returns the owning project's name.
func (q *Queue) Project() string {
	return q.project
}

// Notify returns a channel that receives a signal whenever a task is
// admitted. The channel has a buffer of one; a pending signal means
// "the queue may be non-empty", not one signal per task.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

// Push admits a task ID at the tail of the queue. It is idempotent:
// if the ID is already queued, running, or has a terminal result on
// disk, Push is a no-op and returns false. On admission the state is
// persisted before Push returns.
func (q *Queue) Push(taskID string) (bool, error) {
	q.mu.Lock()

	if q.running == taskID || slices.Contains(q.queued, taskID) {
		q.mu.Unlock()
		return false, nil
	}
	if q.results.Exists(taskID) {
		q.mu.Unlock()
		return false, nil
	}

	q.queued = append(q.queued, taskID)
	err := q.saveLocked()
	if err != nil {
		q.queued = q.queued[:len(q.queued)-1]
	}
	q.mu.Unlock()

	if err != nil {
		return false, err
	}
	q.signal()
	return true, nil
}

// PopForExecution moves the queue head into the running slot and
// persists. It returns an empty string if the queue is empty or a
// task is already running.
func (q *Queue) PopForExecution() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running != "" || len(q.queued) == 0 {
		return "", nil
	}

	head := q.queued[0]
	q.queued = q.queued[1:]
	q.running = head

	if err := q.saveLocked(); err != nil {
		q.queued = append([]string{head}, q.queued...)
		q.running = ""
		return "", err
	}
	return head, nil
}

// Complete clears the running slot after a terminal outcome and
// persists. It is a precondition for the next PopForExecution.
// Completing a task that is not in the running slot returns an error
// wrapping ErrTaskNotFound.
func (q *Queue) Complete(taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running != taskID {
		return errors.NewNotFoundError("running task", taskID)
	}
	q.running = ""
	delete(q.attempts, taskID)

	if err := q.saveLocked(); err != nil {
		q.running = taskID
		return err
	}
	return nil
}

// Retry clears the running slot, increments the task's attempt count,
// and re-admits it at the tail. Returns the new attempt count. The
// caller is responsible for checking the retry budget before calling.
func (q *Queue) Retry(taskID string) (int, error) {
	q.mu.Lock()

	if q.running != taskID {
		q.mu.Unlock()
		return 0, errors.NewNotFoundError("running task", taskID)
	}
	q.running = ""
	q.attempts[taskID]++
	q.queued = append(q.queued, taskID)
	count := q.attempts[taskID]

	err := q.saveLocked()
	if err != nil {
		q.running = taskID
		q.attempts[taskID]--
		q.queued = q.queued[:len(q.queued)-1]
	}
	q.mu.Unlock()

	if err != nil {
		return 0, err
	}
	q.signal()
	return count, nil
}

// Attempts returns how many attempts the task has consumed so far.
func (q *Queue) Attempts(taskID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.attempts[taskID]
}

// Running returns the ID of the currently running task, or empty.
func (q *Queue) Running() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.running
}

// Depth returns the number of queued tasks and whether one is running.
func (q *Queue) Depth() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.queued), q.running != ""
}

// Contains reports whether the task ID is queued or running.
func (q *Queue) Contains(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.running == taskID || slices.Contains(q.queued, taskID)
}

// Snapshot returns a copy of the queue's current state.
func (q *Queue) Snapshot() State {
	q.mu.Lock()
	defer q.mu.Unlock()

	attempts := make(map[string]int, len(q.attempts))
	for id, n := range q.attempts {
		attempts[id] = n
	}
	return State{
		Queued:   slices.Clone(q.queued),
		Running:  q.running,
		Attempts: attempts,
	}
}

// signal performs a non-blocking send on the notify channel.
func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
