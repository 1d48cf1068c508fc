package observer

import (
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/errors"
)

// EventSource delivers the base names of files appearing in a watched
// directory. Two implementations exist: native filesystem
// notification and a portable polling fallback. Both report a file
// only under its final name; staged writes under a temporary name are
// invisible until the atomic rename.
type EventSource interface {
	// Start begins watching. Events become available on Events().
	Start() error

	// Events returns the channel of appearing file names.
	Events() <-chan string

	// Stop ends watching and closes the event channel.
	Stop() error
}

// NewSource builds an EventSource for the directory per the
// configured observer mode.
func NewSource(cfg config.ObserverConfig, dir string) (EventSource, error) {
	switch cfg.Mode {
	case "poll":
		return NewPollSource(dir, cfg.PollInterval()), nil
	case "notify", "":
		return NewNotifySource(dir)
	default:
		return nil, errors.NewValidationError("unknown observer mode").
			WithField("observer.mode").WithValue(cfg.Mode)
	}
}

// NotifySource reports new files using OS-native filesystem
// notification via fsnotify.
type NotifySource struct {
	dir     string
	watcher *fsnotify.Watcher
	events  chan string
	stopCh  chan struct{}
	done    chan struct{}
}

// NewNotifySource creates a notification-based source for dir.
func NewNotifySource(dir string) (*NotifySource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &NotifySource{
		dir:     dir,
		watcher: watcher,
		events:  make(chan string, 16),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start adds the directory to the watcher and begins the event loop.
func (s *NotifySource) Start() error {
	if err := s.watcher.Add(s.dir); err != nil {
		return err
	}
	go s.loop()
	return nil
}

func (s *NotifySource) Events() <-chan string { return s.events }

// Stop closes the watcher and waits for the loop to drain.
func (s *NotifySource) Stop() error {
	close(s.stopCh)
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *NotifySource) loop() {
	defer close(s.done)
	defer close(s.events)

	for {
		select {
		case <-s.stopCh:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// A file atomically renamed into the directory arrives as
			// Create. Rename fires for the OLD name of a file moved
			// out, so it must not admit.
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			name := baseName(event.Name)
			select {
			case s.events <- name:
			case <-s.stopCh:
				return
			}

		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// PollSource reports new files by periodically listing the directory.
// It is the portable fallback for filesystems where native
// notification is unavailable or unreliable.
type PollSource struct {
	dir      string
	interval time.Duration
	events   chan string
	stopCh   chan struct{}
	done     chan struct{}
	seen     map[string]bool
}

// NewPollSource creates a polling source scanning dir every interval.
func NewPollSource(dir string, interval time.Duration) *PollSource {
	return &PollSource{
		dir:      dir,
		interval: interval,
		events:   make(chan string, 16),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		seen:     make(map[string]bool),
	}
}

// Start begins the scan loop. The first scan runs immediately.
func (s *PollSource) Start() error {
	go s.loop()
	return nil
}

func (s *PollSource) Events() <-chan string { return s.events }

// Stop ends the scan loop.
func (s *PollSource) Stop() error {
	close(s.stopCh)
	<-s.done
	return nil
}

func (s *PollSource) loop() {
	defer close(s.done)
	defer close(s.events)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scan()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

// scan emits every name not seen in a previous scan. Duplicate
// emissions after process restart are harmless: admission is
// idempotent downstream.
func (s *PollSource) scan() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || s.seen[entry.Name()] {
			continue
		}
		s.seen[entry.Name()] = true
		select {
		case s.events <- entry.Name():
		case <-s.stopCh:
			return
		}
	}
}
