// Package observer translates filesystem activity in a project's
// intake directory into task admissions, exactly once per physical
// file. Writers stage task documents under a temporary name and
// atomically rename them into place; the observer only ever sees the
// final name.
package observer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tmccall/taskward/internal/logging"
	"github.com/tmccall/taskward/internal/queue"
	"github.com/tmccall/taskward/internal/task"
)

// Observer watches one project's intake directory and pushes matching
// task IDs onto the project's queue.
type Observer struct {
	project string
	dir     string
	pattern *task.Pattern
	queue   *queue.Queue
	source  EventSource
	log     *logging.Logger

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an Observer for a project's intake directory. The
// source must not be started yet; Start owns its lifecycle.
func New(project, dir string, pattern *task.Pattern, q *queue.Queue, source EventSource, log *logging.Logger) *Observer {
	return &Observer{
		project: project,
		dir:     dir,
		pattern: pattern,
		queue:   q,
		source:  source,
		log:     log.WithComponent("observer").WithProject(project),
	}
}

// Start runs the startup rescan and then begins consuming filesystem
// events until Stop is called.
func (o *Observer) Start() error {
	if err := o.source.Start(); err != nil {
		return err
	}

	// Rescan after the watch is established so a file landing between
	// the two is caught by one side or the other.
	if err := o.Rescan(); err != nil {
		_ = o.source.Stop()
		return err
	}

	o.wg.Add(1)
	go o.run()
	return nil
}

// Stop ends event consumption. It is safe to call more than once.
func (o *Observer) Stop() {
	o.stopOnce.Do(func() {
		_ = o.source.Stop()
	})
	o.wg.Wait()
}

// Rescan lists the intake directory and admits every matching file
// that has no corresponding queued, running, or terminal state.
// Missed-during-downtime files are admitted in filename order, which
// embeds the admission timestamp. Safe to run repeatedly.
func (o *Observer) Rescan() error {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		o.handleFile(name)
	}
	return nil
}

func (o *Observer) run() {
	defer o.wg.Done()

	for name := range o.source.Events() {
		o.handleFile(name)
	}
}

// handleFile admits one file if its name matches the task contract.
// Staged writes and hidden files are skipped quietly; anything else
// that does not match is logged as a warning and never admitted.
func (o *Observer) handleFile(name string) {
	if isStagingName(name) {
		return
	}

	taskID, ok := o.pattern.Match(name)
	if !ok {
		o.log.Warn("ignoring file that does not match task naming contract", "file", name)
		return
	}

	// The file can be gone by the time the event is handled, for
	// example when it was moved out of the intake directory.
	if _, err := os.Stat(filepath.Join(o.dir, name)); err != nil {
		o.log.Debug("skipping vanished file", "file", name)
		return
	}

	admitted, err := o.queue.Push(taskID)
	if err != nil {
		o.log.Error("failed to admit task", "task_id", taskID, "error", err)
		return
	}
	if admitted {
		o.log.Info("task admitted", "task_id", taskID, "file", name)
	} else {
		o.log.Debug("duplicate admission suppressed", "task_id", taskID)
	}
}

// isStagingName reports whether the name is a writer's temporary
// staging artifact rather than a candidate task file.
func isStagingName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp")
}

func baseName(path string) string {
	return filepath.Base(path)
}
