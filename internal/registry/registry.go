// Package registry maintains the durable mapping of project names to
// their root paths. The mapping is mutated only by administrative
// operations and persisted as a whole-file atomic replace, so the
// daemon can watch the file and reconcile its running projects
// whenever an out-of-process admin command rewrites it.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tmccall/taskward/internal/errors"
	"github.com/tmccall/taskward/internal/fslock"
)

const lockFileName = "registry.lock"

// persistedEntry is the on-disk shape of one project. The project
// name is the map key, not a field.
type persistedEntry struct {
	Path         string    `json:"path"`
	Enabled      bool      `json:"enabled"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registry is the durable set of registered projects, backed by a
// single JSON file. Every mutation re-reads the file, applies the
// change, and rewrites it atomically, all under a cross-process lock,
// so concurrent admin commands serialize instead of overwriting each
// other.
type Registry struct {
	mu       sync.RWMutex
	path     string
	projects map[string]Project
}

// Open loads the registry from the given file path, creating the
// parent directory if needed. A missing file yields an empty
// registry; an unreadable one returns an error wrapping
// ErrRegistryCorrupted.
func Open(path string) (*Registry, error) {
	r := &Registry{
		path:     path,
		projects: make(map[string]Project),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewPersistenceError("create registry directory", err).WithPath(filepath.Dir(path))
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the registry file, replacing the in-memory set.
// Used by the daemon when a watcher reports the file changed.
func (r *Registry) Reload() error {
	fl := fslock.New(r.lockPath())
	if err := fl.Lock(); err != nil {
		return errors.NewPersistenceError("acquire registry lock", err).WithPath(r.path)
	}
	defer func() { _ = fl.Unlock() }()

	return r.loadLocked()
}

// loadLocked re-reads the registry file into memory. Callers must
// hold the cross-process file lock.
func (r *Registry) loadLocked() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.mu.Lock()
			r.projects = make(map[string]Project)
			r.mu.Unlock()
			return nil
		}
		return errors.NewPersistenceError("read registry file", err).WithPath(r.path)
	}

	var entries map[string]persistedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.NewRegistryError("registry file is not valid JSON",
			errors.Join(errors.ErrRegistryCorrupted, err))
	}

	projects := make(map[string]Project, len(entries))
	for name, e := range entries {
		projects[name] = Project{
			Name:         name,
			Path:         e.Path,
			Enabled:      e.Enabled,
			RegisteredAt: e.RegisteredAt,
		}
	}

	r.mu.Lock()
	r.projects = projects
	r.mu.Unlock()
	return nil
}

// Register adds a project rooted at dir. If name is empty, the base
// name of dir is used. The project's standard subdirectories are
// created if missing, and the new entry is enabled and persisted.
// Returns an error wrapping ErrProjectExists if the name is taken.
func (r *Registry) Register(dir, name string) (Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Project{}, errors.NewValidationError("cannot resolve project path").
			WithField("path").WithValue(dir)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Project{}, errors.NewValidationError("project path does not exist").
			WithField("path").WithValue(abs)
	}
	if !info.IsDir() {
		return Project{}, errors.NewValidationError("project path is not a directory").
			WithField("path").WithValue(abs)
	}

	if name == "" {
		name = filepath.Base(abs)
	}
	if err := validateName(name); err != nil {
		return Project{}, err
	}

	project := Project{
		Name:         name,
		Path:         abs,
		Enabled:      true,
		RegisteredAt: time.Now().UTC(),
	}

	err = r.mutate(func(projects map[string]Project) error {
		if _, exists := projects[name]; exists {
			return errors.NewAlreadyExistsError("project", name)
		}
		for _, d := range project.standardDirs() {
			if err := os.MkdirAll(d, 0755); err != nil {
				return errors.NewPersistenceError("provision project directory", err).
					WithPath(d).WithProject(name)
			}
		}
		projects[name] = project
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	return project, nil
}

// Unregister removes a project entry. The project's directories and
// any persisted queue state or results are left on disk.
// Returns an error wrapping ErrProjectNotFound if the name is unknown.
func (r *Registry) Unregister(name string) error {
	return r.mutate(func(projects map[string]Project) error {
		if _, exists := projects[name]; !exists {
			return errors.NewNotFoundError("project", name)
		}
		delete(projects, name)
		return nil
	})
}

// SetEnabled flips the enabled flag on a project and persists.
// Returns an error wrapping ErrProjectNotFound if the name is unknown.
func (r *Registry) SetEnabled(name string, enabled bool) (Project, error) {
	var project Project
	err := r.mutate(func(projects map[string]Project) error {
		p, exists := projects[name]
		if !exists {
			return errors.NewNotFoundError("project", name)
		}
		p.Enabled = enabled
		projects[name] = p
		project = p
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	return project, nil
}

// Get returns the named project and true, or a zero Project and false.
func (r *Registry) Get(name string) (Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[name]
	return p, ok
}

// List returns a snapshot of all registered projects, sorted by name.
func (r *Registry) List() []Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})
	return projects
}

// Enabled returns a snapshot of enabled projects, sorted by name.
func (r *Registry) Enabled() []Project {
	all := r.List()
	enabled := all[:0]
	for _, p := range all {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// Touch rewrites the registry file without changing its contents.
// A watching daemon sees the rewrite as a change and re-runs
// reconciliation, which is how the restart command works.
func (r *Registry) Touch() error {
	return r.mutate(func(map[string]Project) error { return nil })
}

// mutate runs one read-modify-write cycle under the cross-process
// lock, re-reading the file before applying fn so that concurrent
// admin commands cannot overwrite each other's changes. fn receives
// the live project map; returning an error abandons the write.
func (r *Registry) mutate(fn func(projects map[string]Project) error) error {
	fl := fslock.New(r.lockPath())
	if err := fl.Lock(); err != nil {
		return errors.NewPersistenceError("acquire registry lock", err).WithPath(r.path)
	}
	defer func() { _ = fl.Unlock() }()

	if err := r.loadLocked(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(r.projects); err != nil {
		return err
	}
	return r.saveLocked()
}

// saveLocked writes the registry to disk atomically. Callers must
// hold both r.mu and the cross-process file lock.
func (r *Registry) saveLocked() error {
	entries := make(map[string]persistedEntry, len(r.projects))
	for name, p := range r.projects {
		entries[name] = persistedEntry{
			Path:         p.Path,
			Enabled:      p.Enabled,
			RegisteredAt: p.RegisteredAt,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("marshal registry", err).WithPath(r.path)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewPersistenceError("write registry temp file", err).WithPath(tmp)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewPersistenceError("rename registry temp file", err).WithPath(r.path)
	}
	return nil
}

func (r *Registry) lockPath() string {
	return filepath.Join(filepath.Dir(r.path), lockFileName)
}

// validateName rejects names that would break the registry key space
// or produce surprising paths in status output.
func validateName(name string) error {
	if name == "" {
		return errors.NewValidationError("project name must not be empty").WithField("name")
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.NewValidationError("project name must not contain path separators").
			WithField("name").WithValue(name)
	}
	if name == "." || name == ".." {
		return errors.NewValidationError("project name must not be a relative path element").
			WithField("name").WithValue(name)
	}
	return nil
}
