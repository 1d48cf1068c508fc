// Package task defines task identity, the task filename contract, and the
// durable Result store. A task is a unit of work described by a document
// dropped into a project's intake directory; its identity is derived
// deterministically from the source filename.
package task

import "time"

// Status represents the current state of a task.
type Status string

const (
	// StatusQueued indicates the task is waiting in a project's queue.
	StatusQueued Status = "queued"

	// StatusRunning indicates the task is actively being executed.
	StatusRunning Status = "running"

	// StatusRetrying indicates the task failed transiently and has been
	// re-admitted to the queue.
	StatusRetrying Status = "retrying"

	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the task failed and exhausted all retries.
	StatusFailed Status = "failed"
)

// String returns the string representation of the task status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
// A task becomes immutable once it reaches a terminal status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result is the durable, terminal record of a task's execution outcome.
// Exactly one Result is written per terminal outcome; a retried task's
// final outcome overwrites the prior attempt's record only when it
// reaches a terminal state.
type Result struct {
	// TaskID identifies the task this result belongs to.
	TaskID string `json:"task_id"`

	// AttemptID identifies the specific execution attempt that produced
	// this result, for log correlation across retries.
	AttemptID string `json:"attempt_id,omitempty"`

	// Status is the terminal status, "completed" or "failed".
	Status Status `json:"status"`

	// Stdout is the captured backend output.
	Stdout string `json:"stdout"`

	// Stderr is the captured backend error output.
	Stderr string `json:"stderr"`

	// Summary is an optional structured summary reported by the backend.
	Summary string `json:"summary,omitempty"`

	// DurationSeconds is the wall-clock execution time of the final attempt.
	DurationSeconds float64 `json:"duration_seconds"`

	// StartedAt is when the final attempt began.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the task reached its terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// RetryCount is how many retries the task consumed before terminating.
	RetryCount int `json:"retry_count"`

	// Error describes the failure, empty on success.
	Error string `json:"error,omitempty"`
}
