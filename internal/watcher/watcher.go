// Package watcher monitors directories for arriving video files and
// emits an event once a file has stopped changing.
//
// Downloads and transcodes write files incrementally, so a file is
// only reported after it has been quiet for the debounce interval.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"aivid/internal/bmff"
)

// Event represents a video file that has arrived and stabilized.
type Event struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

// Watcher monitors directories for new or modified video files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	interval  time.Duration

	// State tracking: path -> last modification time
	state   map[string]time.Time
	stateMu sync.RWMutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher over the given paths. The interval is how long
// a file must be quiet before it is reported.
func New(paths []string, interval time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		paths:     paths,
		interval:  interval,
		state:     make(map[string]time.Time),
		events:    make(chan Event, 100),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of stabilized video files.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching all configured paths. Video files already
// present when watching starts are tracked and reported too.
func (w *Watcher) Start() error {
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if err := w.fsWatcher.Add(absPath); err != nil {
				return err
			}

			entries, err := os.ReadDir(absPath)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					w.trackFile(filepath.Join(absPath, entry.Name()))
				}
			}
		} else {
			// Single files are watched via their directory.
			if err := w.fsWatcher.Add(filepath.Dir(absPath)); err != nil {
				return err
			}
			w.trackFile(absPath)
		}
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

// trackFile adds a video file to state tracking.
func (w *Watcher) trackFile(path string) {
	if !bmff.IsContainerFile(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	w.stateMu.Lock()
	w.state[path] = info.ModTime()
	w.stateMu.Unlock()
}

// eventLoop handles fsnotify events.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !bmff.IsContainerFile(event.Name) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil || info.IsDir() {
				continue
			}

			w.stateMu.Lock()
			w.state[event.Name] = time.Now()
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// debounceLoop periodically checks for files that have gone quiet.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.checkStableFiles(now)
		}
	}
}

type stableFile struct {
	path    string
	lastMod time.Time
}

// checkStableFiles emits events for files unchanged since the debounce
// threshold. The lock is released during stat calls so eventLoop is
// never blocked on I/O.
func (w *Watcher) checkStableFiles(now time.Time) {
	threshold := now.Add(-w.interval)

	var stable []stableFile
	w.stateMu.RLock()
	for path, lastMod := range w.state {
		if lastMod.Before(threshold) {
			stable = append(stable, stableFile{path: path, lastMod: lastMod})
		}
	}
	w.stateMu.RUnlock()

	if len(stable) == 0 {
		return
	}

	type statResult struct {
		stableFile
		size int64
		err  error
	}
	results := make([]statResult, len(stable))
	for i, sf := range stable {
		info, err := os.Stat(sf.path)
		results[i] = statResult{stableFile: sf, err: err}
		if err == nil {
			results[i].size = info.Size()
		}
	}

	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	for _, r := range results {
		if r.err != nil {
			// Deleted before stabilizing.
			delete(w.state, r.path)
			continue
		}

		currentLastMod, exists := w.state[r.path]
		if !exists {
			continue
		}
		if currentLastMod != r.lastMod {
			// Modified while we were checking; let it stabilize again.
			continue
		}

		select {
		case w.events <- Event{Path: r.path, Size: r.size, Timestamp: now}:
			// Remove from state until the next modification.
			delete(w.state, r.path)
		default:
			// Channel full, try again next tick.
		}
	}
}

// WatchedPaths returns the list of paths being watched.
func (w *Watcher) WatchedPaths() []string {
	return w.paths
}

// TrackedFiles returns the number of files awaiting stabilization.
func (w *Watcher) TrackedFiles() int {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return len(w.state)
}
