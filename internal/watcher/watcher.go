// Package watcher watches file-registry manifests and reports changed
// paths, debounced, so long-lived callers can re-fetch a registry as soon
// as its manifest is edited.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/cask/internal/log"
)

// DefaultDebounce coalesces editor write bursts into one notification.
const DefaultDebounce = time.Second

// Watcher monitors registered manifest files for writes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	changes   chan string
	done      chan struct{}

	mu    sync.Mutex
	paths map[string]bool // watched manifest paths, cleaned
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		changes:   make(chan string, 16),
		done:      make(chan struct{}),
		paths:     make(map[string]bool),
	}, nil
}

// Watch registers a manifest path. The containing directory is watched so
// atomic saves (write to temp, rename over) are still observed.
func (w *Watcher) Watch(path string) error {
	clean := filepath.Clean(path)
	if err := w.fsWatcher.Add(filepath.Dir(clean)); err != nil {
		return fmt.Errorf("watch directory of %s: %w", clean, err)
	}

	w.mu.Lock()
	w.paths[clean] = true
	w.mu.Unlock()

	log.Debug(log.CatWatcher, "Watching manifest", "path", clean)
	return nil
}

// Start begins delivering changed manifest paths on the returned channel.
func (w *Watcher) Start() <-chan string {
	go w.loop()
	return w.changes
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	pending := make(map[string]bool)

	timerC := func() <-chan time.Time {
		if timer == nil {
			return nil
		}
		return timer.C
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			path, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			pending[path] = true
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

		case <-timerC():
			for path := range pending {
				select {
				case w.changes <- path:
				default:
					// Channel full, drop rather than block the loop.
				}
				delete(pending, path)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevant reports whether the event is a write/create/rename of a
// registered manifest path.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	clean := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	return clean, w.paths[clean]
}
