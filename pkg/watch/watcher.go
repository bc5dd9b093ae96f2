// Package watch re-runs analysis when resource files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors resource files and directories and triggers a
// re-analysis callback after changes settle. Rapid bursts of writes
// within the debounce window collapse into a single callback carrying
// every changed path.
type Watcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	watched  map[string]bool // watched files; empty set means whole-directory mode
	pending  map[string]bool // changed paths awaiting the debounce timer
	timer    *time.Timer
	debounce time.Duration

	OnChange func(paths []string)
	OnError  func(err error)
}

// NewWatcher creates a watcher with the given debounce window.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:  fsWatcher,
		watched:  make(map[string]bool),
		pending:  make(map[string]bool),
		debounce: debounce,
	}, nil
}

// Watch starts watching a file or directory. Watching a file watches
// its containing directory and filters events down to that file.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	dir := absPath
	if !stat.IsDir() {
		w.mu.Lock()
		w.watched[absPath] = true
		w.mu.Unlock()
		dir = filepath.Dir(absPath)
	}

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	return nil
}

// Run starts the watch loop. Blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if !w.tracked(absPath) {
				continue
			}
			w.queue(absPath)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

// tracked reports whether a path participates in this watch. With no
// explicit file set, every event in a watched directory counts.
func (w *Watcher) tracked(absPath string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.watched) == 0 {
		return true
	}
	return w.watched[absPath]
}

// queue records a changed path and resets the debounce timer.
func (w *Watcher) queue(absPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[absPath] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire drains the pending set and invokes the callback once.
func (w *Watcher) fire() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	if w.OnChange != nil {
		w.OnChange(paths)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
