// Package watcher reports debounced changes to the project's webpage assets.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sokol-samples/webpage/internal/log"
)

// Watcher monitors one directory and signals after a burst of changes settles.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	started   bool
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Dir         string
	DebounceDur time.Duration
}

// DefaultConfig returns defaults for watching dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		DebounceDur: 300 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives one signal per
// settled burst of changes; signals are dropped while one is pending.
// Calling Start again returns the same channel.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if w.started {
		return w.onChange, nil
	}
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	log.Debug(log.CatWatcher, "Watching", "dir", w.dir)

	w.started = true
	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and waits for its goroutine to exit.
// Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		if w.started {
			<-w.stopped
		}
	})
	return err
}

// Run calls fn after every settled burst of changes until ctx is done,
// starting the watcher first unless Start was already called.
// An error from fn is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := fn(ctx); err != nil {
				log.ErrorErr(log.CatWatcher, "Change handler failed", err, "dir", w.dir)
			}
		}
	}
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	var timer *time.Timer
	// nil until the first relevant event; a nil channel never fires.
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isRelevantEvent(event) {
				continue
			}
			log.Debug(log.CatWatcher, "Change", "file", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err, "dir", w.dir)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent ignores chmod-only events and editor temp files.
func isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".tmp"):
		return false
	}
	return true
}
