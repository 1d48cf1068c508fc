// Package orchestrator owns the registry and the set of per-project
// {observer, queue, executor} triads. It reconciles the running set
// against the registry's enabled projects on startup and whenever the
// registry file is rewritten by an administrative command.
package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tmccall/taskward/internal/backend"
	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/executor"
	"github.com/tmccall/taskward/internal/logging"
	"github.com/tmccall/taskward/internal/observer"
	"github.com/tmccall/taskward/internal/queue"
	"github.com/tmccall/taskward/internal/registry"
	"github.com/tmccall/taskward/internal/task"
)

// registryDebounce coalesces the burst of filesystem events a single
// atomic registry rewrite produces.
const registryDebounce = 100 * time.Millisecond

// triad is the running machinery for one enabled project.
type triad struct {
	project  registry.Project
	queue    *queue.Queue
	observer *observer.Observer
	executor *executor.Executor
	log      *logging.Logger
}

// Orchestrator reconciles running triads against the registry.
type Orchestrator struct {
	cfg      *config.Config
	registry *registry.Registry
	backend  backend.Backend
	pattern  *task.Pattern
	log      *logging.Logger

	mu     sync.Mutex
	triads map[string]*triad
}

// New creates an Orchestrator. Call Run to start the daemon loop.
func New(cfg *config.Config, reg *registry.Registry, b backend.Backend, log *logging.Logger) (*Orchestrator, error) {
	pattern, err := task.NewPattern(cfg.Task.Prefix, cfg.Task.Extension)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: reg,
		backend:  b,
		pattern:  pattern,
		log:      log.WithComponent("orchestrator"),
		triads:   make(map[string]*triad),
	}, nil
}

// Run reconciles once, then watches the registry file for rewrites
// until ctx is cancelled. On cancellation every triad is shut down
// gracefully: observers stop admitting, executors finish their
// current task and exit.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.Reconcile()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: atomic rename replaces the
	// file's inode, which would silently drop a file-level watch.
	if err := watcher.Add(filepath.Dir(o.registry.Path())); err != nil {
		return err
	}

	registryName := filepath.Base(o.registry.Path())
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				o.shutdown()
				return nil
			}
			if filepath.Base(event.Name) != registryName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !pending {
				pending = true
				debounce.Reset(registryDebounce)
			}

		case <-debounce.C:
			pending = false
			if err := o.registry.Reload(); err != nil {
				o.log.Error("registry reload failed", "error", err)
				continue
			}
			o.Reconcile()

		case err, ok := <-watcher.Errors:
			if !ok {
				o.shutdown()
				return nil
			}
			o.log.Warn("registry watch error", "error", err)
		}
	}
}

// Reconcile brings the running triads in line with the registry's
// enabled projects. It is idempotent and safe to run repeatedly.
func (o *Orchestrator) Reconcile() {
	desired := make(map[string]registry.Project)
	for _, p := range o.registry.Enabled() {
		desired[p.Name] = p
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// Stop triads whose project is gone, disabled, or re-rooted.
	for name, tr := range o.triads {
		p, ok := desired[name]
		if ok && p.Path == tr.project.Path {
			continue
		}
		o.log.Info("stopping project", "project", name)
		o.stopTriad(tr)
		delete(o.triads, name)
	}

	// Start triads for newly enabled projects.
	for name, p := range desired {
		if _, running := o.triads[name]; running {
			continue
		}
		tr, err := o.startTriad(p)
		if err != nil {
			o.log.Error("failed to start project", "project", name, "error", err)
			continue
		}
		o.triads[name] = tr
		o.log.Info("project started", "project", name, "path", p.Path)
	}
}

// Projects returns the names of projects with a running triad.
func (o *Orchestrator) Projects() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := make([]string, 0, len(o.triads))
	for name := range o.triads {
		names = append(names, name)
	}
	return names
}

// startTriad wires up and starts queue, observer, and executor for
// one project, applying crash recovery from persisted queue state.
func (o *Orchestrator) startTriad(p registry.Project) (*triad, error) {
	log, err := o.projectLogger(p)
	if err != nil {
		return nil, err
	}

	results, err := task.NewResultStore(p.ResultsDir())
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	q, recovery, err := queue.Open(p.Name, p.StateDir(), results, o.cfg.Executor.MaxRetries)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	if recovery != nil {
		if recovery.Requeued {
			log.Warn("interrupted task requeued",
				"task_id", recovery.TaskID, "retry_count", recovery.Attempts)
		} else {
			log.Error("interrupted task failed, retries exhausted",
				"task_id", recovery.TaskID, "retry_count", recovery.Attempts)
		}
	}

	source, err := observer.NewSource(o.cfg.Observer, p.TasksDir())
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	obs := observer.New(p.Name, p.TasksDir(), o.pattern, q, source, log)
	exec := executor.New(p.Name, p.Path, p.TasksDir(), o.pattern, q, o.backend, results,
		o.cfg.Executor, log)

	if err := obs.Start(); err != nil {
		_ = log.Close()
		return nil, err
	}
	exec.Start()

	tr := &triad{project: p, queue: q, observer: obs, executor: exec, log: log}
	go o.watchExecutor(tr)
	return tr, nil
}

// stopTriad shuts one project down gracefully: the observer stops
// admitting first, then the executor finishes its current task.
func (o *Orchestrator) stopTriad(tr *triad) {
	tr.observer.Stop()
	tr.executor.Stop()
	_ = tr.log.Close()
}

// watchExecutor surfaces a fatal executor halt. The triad's project
// stays registered; a restart re-runs recovery from persisted state.
func (o *Orchestrator) watchExecutor(tr *triad) {
	<-tr.executor.Done()
	if err := tr.executor.Err(); err != nil {
		o.log.Error("project executor halted on persistence failure",
			"project", tr.project.Name, "error", err)
	}
}

// shutdown stops all triads. Runs on daemon exit.
func (o *Orchestrator) shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for name, tr := range o.triads {
		o.log.Info("stopping project", "project", name)
		o.stopTriad(tr)
		delete(o.triads, name)
	}
}

// projectLogger opens the per-project rotating log.
func (o *Orchestrator) projectLogger(p registry.Project) (*logging.Logger, error) {
	if !o.cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(p.LogsDir(), o.cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  o.cfg.Logging.MaxSizeMB,
		MaxBackups: o.cfg.Logging.MaxBackups,
	})
}
