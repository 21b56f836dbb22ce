package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/deps-minimizer/pkg/logging"
)

// FileWatcher settles writes by waiting for the file system to report them.
// After the first write or create event for the path it waits for a quiet
// period without further events. The whole wait is capped by maxWait, so a
// lost event costs at most the fixed delay.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	maxWait time.Duration
	quiet   time.Duration
	events  chan string
	done    chan struct{}

	mu      sync.Mutex
	watched map[string]bool
}

// NewFileWatcher creates a new file system watcher
func NewFileWatcher(maxWait, quiet time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		maxWait: maxWait,
		quiet:   quiet,
		events:  make(chan string, 100),
		done:    make(chan struct{}),
		watched: make(map[string]bool),
	}
	go fw.processEvents()

	return fw, nil
}

// Watch adds the directory of path to the watch list. Directories are
// watched non-recursively and only once.
func (fw *FileWatcher) Watch(path string) error {
	dir := filepath.Dir(filepath.Clean(path))

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.watched[dir] {
		return nil
	}
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	fw.watched[dir] = true
	logging.Trace("monitoring directory", "path", dir)
	return nil
}

// Settle waits for a write to path followed by the quiet period.
func (fw *FileWatcher) Settle(ctx context.Context, path string) error {
	path = filepath.Clean(path)

	deadline := time.NewTimer(fw.maxWait)
	defer deadline.Stop()

	var quiet *time.Timer
	var quietC <-chan time.Time
	defer func() {
		if quiet != nil {
			quiet.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline.C:
			logging.Debug("settle deadline reached", "path", path, "wait", fw.maxWait)
			return nil

		case name, ok := <-fw.events:
			if !ok {
				return nil
			}
			if name != path {
				continue
			}
			// Every event for path restarts the quiet period
			if quiet == nil {
				quiet = time.NewTimer(fw.quiet)
				quietC = quiet.C
			} else {
				quiet.Reset(fw.quiet)
			}

		case <-quietC:
			return nil
		}
	}
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	err := fw.watcher.Close()
	<-fw.done
	return err
}

// processEvents forwards write and create events until the watcher closes
func (fw *FileWatcher) processEvents() {
	defer close(fw.done)
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			select {
			case fw.events <- filepath.Clean(event.Name):
			default:
				// Nobody is settling; drop rather than block the watcher
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}
