package index

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/scour/internal/debug"
)

// Watcher keeps index rows fresh for directories the user has visited.
// Filesystem events are debounced per directory; after the quiet period the
// affected directory is re-scanned and its rows reconciled.
type Watcher struct {
	idx        *Index
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	watching   map[string]bool // Currently watched paths
	notify     chan string     // Refreshed directory paths, for UI reloads
	done       chan struct{}   // Shutdown signal
	debounceMs int             // Debounce interval in milliseconds
}

// NewWatcher creates a watcher feeding refreshes into idx.
func NewWatcher(idx *Index, debounceMs int) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 200 // Default 200ms debounce
	}

	iw := &Watcher{
		idx:        idx,
		watcher:    w,
		watching:   make(map[string]bool),
		notify:     make(chan string, 10),
		done:       make(chan struct{}),
		debounceMs: debounceMs,
	}

	go iw.run()
	return iw, nil
}

// run processes filesystem events with debouncing
func (iw *Watcher) run() {
	// Debounce: track last event time per directory
	lastEvent := make(map[string]time.Time)
	pending := make(map[string]bool)
	ticker := time.NewTicker(time.Duration(iw.debounceMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-iw.done:
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}

			// We care about creates, deletes, renames, and writes
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Write) {
				// fsnotify reports the full path of the changed file;
				// find which watched directory contains it
				changedPath := event.Name
				parentDir := filepath.Dir(changedPath)

				iw.mu.Lock()
				if iw.watching[parentDir] {
					lastEvent[parentDir] = time.Now()
					pending[parentDir] = true
					debug.Log(debug.INDEX, "fs event: %s on %s (parent: %s)", event.Op, changedPath, parentDir)
				} else if iw.watching[changedPath] {
					// The watched directory itself was modified
					lastEvent[changedPath] = time.Now()
					pending[changedPath] = true
					debug.Log(debug.INDEX, "fs event: %s on watched dir %s", event.Op, changedPath)
				}
				iw.mu.Unlock()
			}

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.INDEX, "fsnotify error: %v", err)

		case <-ticker.C:
			// Check for debounced events ready to fire
			now := time.Now()
			debounce := time.Duration(iw.debounceMs) * time.Millisecond

			for dir, isPending := range pending {
				if !isPending || now.Sub(lastEvent[dir]) < debounce {
					continue
				}
				delete(pending, dir)
				delete(lastEvent, dir)

				if err := iw.idx.RefreshDir(dir); err != nil {
					debug.Log(debug.INDEX, "refresh of %q failed: %v", dir, err)
					continue
				}
				select {
				case iw.notify <- dir:
				default:
					// Channel full, skip
				}
			}
		}
	}
}

// Watch adds a directory to the watch list
func (iw *Watcher) Watch(path string) error {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if iw.watching[path] {
		return nil // Already watching
	}

	if err := iw.watcher.Add(path); err != nil {
		return err
	}

	iw.watching[path] = true
	debug.Log(debug.INDEX, "now watching directory: %s", path)
	return nil
}

// Unwatch removes a directory from the watch list
func (iw *Watcher) Unwatch(path string) error {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if !iw.watching[path] {
		return nil // Not watching
	}

	if err := iw.watcher.Remove(path); err != nil {
		// Ignore errors when removing - path may already be gone
		debug.Log(debug.INDEX, "error unwatching %s: %v", path, err)
	}

	delete(iw.watching, path)
	return nil
}

// Notify returns the channel that receives refreshed directory paths.
func (iw *Watcher) Notify() <-chan string {
	return iw.notify
}

// Close shuts down the watcher
func (iw *Watcher) Close() error {
	close(iw.done)
	return iw.watcher.Close()
}
