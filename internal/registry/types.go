package registry

import (
	"path/filepath"
	"time"
)

// Standard subdirectories provisioned under every project root.
const (
	tasksDirName   = "tasks"
	resultsDirName = "results"
	stateDirName   = "state"
	logsDirName    = "logs"
)

// Project is a registered project entry. Name is unique across the
// registry; Path is always absolute.
type Project struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Enabled      bool      `json:"enabled"`
	RegisteredAt time.Time `json:"registered_at"`
}

// TasksDir returns the project's task intake directory.
func (p Project) TasksDir() string {
	return filepath.Join(p.Path, tasksDirName)
}

// ResultsDir returns the directory where terminal task results are written.
func (p Project) ResultsDir() string {
	return filepath.Join(p.Path, resultsDirName)
}

// StateDir returns the directory holding the project's queue state.
func (p Project) StateDir() string {
	return filepath.Join(p.Path, stateDirName)
}

// LogsDir returns the project's log directory.
func (p Project) LogsDir() string {
	return filepath.Join(p.Path, logsDirName)
}

// standardDirs returns all subdirectories provisioned at registration.
func (p Project) standardDirs() []string {
	return []string{p.TasksDir(), p.ResultsDir(), p.StateDir(), p.LogsDir()}
}
