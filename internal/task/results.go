package task

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmccall/taskward/internal/errors"
)

// ResultStore persists one Result document per task under a project's
// results directory, as <task_id>.json. Results are written exactly once
// per terminal outcome, via temp-file + atomic rename so a crash mid-write
// never leaves a truncated document.
type ResultStore struct {
	dir string
}

// NewResultStore creates a ResultStore rooted at dir, creating the
// directory if needed.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewPersistenceError("failed to create results directory", err).WithPath(dir)
	}
	return &ResultStore{dir: dir}, nil
}

// Dir returns the directory results are stored in.
func (s *ResultStore) Dir() string {
	return s.dir
}

// Write persists the result for its task, replacing any record from a
// prior attempt.
func (s *ResultStore) Write(result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("marshal result", err).WithPath(s.path(result.TaskID))
	}

	target := s.path(result.TaskID)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewPersistenceError("write temp result file", err).WithPath(tmp)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewPersistenceError("rename temp result file", err).WithPath(target)
	}
	return nil
}

// Read returns the result for the given task ID, or ErrTaskNotFound if no
// terminal record exists.
func (s *ResultStore) Read(taskID string) (*Result, error) {
	data, err := os.ReadFile(s.path(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrTaskNotFound, "no result for %s", taskID)
		}
		return nil, errors.NewPersistenceError("read result file", err).WithPath(s.path(taskID))
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.NewPersistenceError("unmarshal result", errors.Join(errors.ErrStateCorrupted, err)).WithPath(s.path(taskID))
	}
	return &result, nil
}

// Exists reports whether a terminal result has been written for the task.
func (s *ResultStore) Exists(taskID string) bool {
	_, err := os.Stat(s.path(taskID))
	return err == nil
}

// List returns all persisted results, sorted by task ID. Task IDs embed
// the admission timestamp, so this is admission order.
func (s *ResultStore) List() ([]*Result, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewPersistenceError("list results directory", err).WithPath(s.dir)
	}

	var results []*Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		taskID := strings.TrimSuffix(entry.Name(), ".json")
		result, err := s.Read(taskID)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].TaskID < results[j].TaskID
	})
	return results, nil
}

// TaskIDs returns the set of task IDs with a terminal result present.
func (s *ResultStore) TaskIDs() (map[string]bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, errors.NewPersistenceError("list results directory", err).WithPath(s.dir)
	}

	ids := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids[strings.TrimSuffix(entry.Name(), ".json")] = true
	}
	return ids, nil
}

func (s *ResultStore) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}
