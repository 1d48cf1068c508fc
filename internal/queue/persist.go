package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tmccall/taskward/internal/errors"
	"github.com/tmccall/taskward/internal/fslock"
	"github.com/tmccall/taskward/internal/task"
)

const (
	stateFileName = "queue_state.json"
	lockFileName  = "queue.lock"
)

// State is the serializable representation of a project queue.
type State struct {
	Queued   []string       `json:"queued"`
	Running  string         `json:"running,omitempty"`
	Attempts map[string]int `json:"attempts,omitempty"`
}

// Recovery describes what Open did about a running slot left behind
// by a crash.
type Recovery struct {
	// TaskID is the task that was running when the process died.
	TaskID string

	// Requeued is true if the task was placed back at the front of
	// the queue, false if its retry budget was exhausted and a failed
	// Result was written instead.
	Requeued bool

	// Attempts is the task's attempt count after recovery.
	Attempts int
}

// Open loads a project's queue from its state directory, applying
// crash recovery. A missing state file yields an empty queue. If the
// persisted running slot is non-empty, the interrupted task is
// requeued at the front with its attempt count incremented, unless
// the count has already reached maxRetries, in which case a failed
// Result is written and the task is dropped. If that Result cannot be
// written, Open fails rather than dropping the task without a record.
// The returned Recovery is nil when there was nothing to recover.
func Open(project, stateDir string, results *task.ResultStore, maxRetries int) (*Queue, *Recovery, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, nil, errors.NewPersistenceError("create state directory", err).
			WithPath(stateDir).WithProject(project)
	}

	q := &Queue{
		project:  project,
		stateDir: stateDir,
		results:  results,
		attempts: make(map[string]int),
		notify:   make(chan struct{}, 1),
	}

	fl := fslock.New(filepath.Join(stateDir, lockFileName))
	if err := fl.Lock(); err != nil {
		return nil, nil, errors.NewPersistenceError("acquire queue lock", err).
			WithPath(stateDir).WithProject(project)
	}
	defer func() { _ = fl.Unlock() }()

	statePath := filepath.Join(stateDir, stateFileName)
	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return q, nil, nil
		}
		return nil, nil, errors.NewPersistenceError("read queue state", err).
			WithPath(statePath).WithProject(project)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil, errors.NewPersistenceError("queue state is not valid JSON",
			errors.Join(errors.ErrStateCorrupted, err)).
			WithPath(statePath).WithProject(project)
	}

	q.queued = state.Queued
	if q.queued == nil {
		q.queued = []string{}
	}
	if state.Attempts != nil {
		q.attempts = state.Attempts
	}

	var recovery *Recovery
	if state.Running != "" {
		recovery, err = q.recoverRunning(state.Running, maxRetries)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := q.saveLocked(); err != nil {
		return nil, nil, err
	}
	if len(q.queued) > 0 {
		q.signal()
	}
	return q, recovery, nil
}

// recoverRunning resolves a running slot left behind by a crash.
// Backend invocations are not resumable, so the task is either
// requeued at the front for a fresh attempt or failed outright.
func (q *Queue) recoverRunning(taskID string, maxRetries int) (*Recovery, error) {
	if q.attempts[taskID] < maxRetries {
		q.attempts[taskID]++
		q.queued = append([]string{taskID}, q.queued...)
		return &Recovery{
			TaskID:   taskID,
			Requeued: true,
			Attempts: q.attempts[taskID],
		}, nil
	}

	now := time.Now().UTC()
	result := &task.Result{
		TaskID:      taskID,
		AttemptID:   uuid.NewString(),
		Status:      task.StatusFailed,
		StartedAt:   &now,
		CompletedAt: &now,
		RetryCount:  q.attempts[taskID],
		Error:       errors.ErrRetriesExhausted.Error(),
	}
	// The failed Result becomes the task's only record once it leaves
	// the queue, so this write must not be dropped.
	if err := q.results.Write(result); err != nil {
		return nil, errors.NewPersistenceError("write recovery result", err).
			WithProject(q.project)
	}

	recovery := &Recovery{
		TaskID:   taskID,
		Requeued: false,
		Attempts: q.attempts[taskID],
	}
	delete(q.attempts, taskID)
	return recovery, nil
}

// ReadState reads a project's persisted queue state without applying
// crash recovery or taking ownership. Used by read-only status
// queries, which must never mutate state. A missing file reads as an
// empty queue.
func ReadState(stateDir string) (State, error) {
	empty := State{Queued: []string{}, Attempts: map[string]int{}}

	data, err := os.ReadFile(filepath.Join(stateDir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return empty, errors.NewPersistenceError("read queue state", err).WithPath(stateDir)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return empty, errors.NewPersistenceError("queue state is not valid JSON",
			errors.Join(errors.ErrStateCorrupted, err)).WithPath(stateDir)
	}
	if state.Queued == nil {
		state.Queued = []string{}
	}
	if state.Attempts == nil {
		state.Attempts = map[string]int{}
	}
	return state, nil
}

// saveLocked writes the queue state atomically. Callers must hold q.mu
// (or be the only goroutine with access, as during Open).
func (q *Queue) saveLocked() error {
	state := State{
		Queued:   q.queued,
		Running:  q.running,
		Attempts: q.attempts,
	}
	if state.Queued == nil {
		state.Queued = []string{}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("marshal queue state", err).WithProject(q.project)
	}

	target := filepath.Join(q.stateDir, stateFileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewPersistenceError("write queue state temp file", err).
			WithPath(tmp).WithProject(q.project)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewPersistenceError("rename queue state temp file", err).
			WithPath(target).WithProject(q.project)
	}
	return nil
}
