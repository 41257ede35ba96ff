// Package watcher monitors the rules file and triggers hot reloads.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors files for changes and invokes a callback after a
// debounce interval. Rapid bursts of writes collapse into one reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(path string)
	onError  func(err error)
	paths    []string
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	pending     bool
	pendingPath string
}

// New creates a file watcher. onChange runs after the debounce window
// closes; onError may be nil.
func New(debounce time.Duration, onChange func(path string), onError func(err error)) *Watcher {
	return &Watcher{
		debounce: debounce,
		onChange: onChange,
		onError:  onError,
		paths:    make([]string, 0),
		stopCh:   make(chan struct{}),
	}
}

// AddPath adds a path to watch.
func (w *Watcher) AddPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paths = append(w.paths, path)

	if w.watcher != nil && w.running {
		_ = w.watcher.Add(filepath.Dir(path))
	}
}

// Start begins watching for file changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	var err error
	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	// Watch the directory containing each file for better reliability
	for _, path := range w.paths {
		_ = w.watcher.Add(filepath.Dir(path))
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	go w.run()
	return nil
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// run is the main event loop.
func (w *Watcher) run() {
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()

	for {
		select {
		case <-w.stopCh:
			debounceTimer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.isWatchedPath(event.Name) {
				continue
			}

			// Only react to write and create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.mu.Lock()
			w.pending = true
			w.pendingPath = event.Name
			w.mu.Unlock()

			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			w.mu.Lock()
			pending := w.pending
			path := w.pendingPath
			w.pending = false
			w.mu.Unlock()

			if pending && w.onChange != nil {
				w.onChange(path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// isWatchedPath checks if the given path matches any watched path.
func (w *Watcher) isWatchedPath(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, _ := filepath.Abs(path)

	for _, watchedPath := range w.paths {
		absWatched, _ := filepath.Abs(watchedPath)
		if absPath == absWatched {
			return true
		}
		// Also check by base name for reliability
		if filepath.Base(path) == filepath.Base(watchedPath) {
			return true
		}
	}
	return false
}

// WatchRules creates a watcher configured for the rules file.
func WatchRules(rulesPath string, debounce time.Duration, onChange func(path string), onError func(err error)) *Watcher {
	w := New(debounce, onChange, onError)
	w.AddPath(rulesPath)
	return w
}
