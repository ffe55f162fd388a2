package llm

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SignalWatcher watches a signals directory for operator control files.
// Creating a file named "stop" halts all execution loops at their next
// step boundary. The watcher is advisory: if fsnotify is unavailable the
// stop file is still detected by the stat fallback in ShouldStop.
type SignalWatcher struct {
	signalsDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates a watcher over the given directory, creating
// it if needed.
func NewSignalWatcher(signalsDir string) (*SignalWatcher, error) {
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without the watcher; ShouldStop falls back to stat.
		return sw, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher

	go sw.watch()
	return sw, nil
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "stop" &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sw.mu.Lock()
				sw.stopSignal = true
				sw.mu.Unlock()
			}
		case <-sw.watcher.Errors:
			// Keep watching.
		}
	}
}

// ShouldStop reports whether the operator has requested a stop.
func (sw *SignalWatcher) ShouldStop() bool {
	sw.mu.RLock()
	flagged := sw.stopSignal
	sw.mu.RUnlock()
	if flagged {
		return true
	}

	// Stat fallback covers missed events and watcherless operation.
	if _, err := os.Stat(filepath.Join(sw.signalsDir, "stop")); err == nil {
		sw.mu.Lock()
		sw.stopSignal = true
		sw.mu.Unlock()
		return true
	}
	return false
}

// ClearStop removes the stop file and resets the flag.
func (sw *SignalWatcher) ClearStop() error {
	sw.mu.Lock()
	sw.stopSignal = false
	sw.mu.Unlock()

	err := os.Remove(filepath.Join(sw.signalsDir, "stop"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close stops the watcher.
func (sw *SignalWatcher) Close() error {
	close(sw.done)
	if sw.watcher != nil {
		return sw.watcher.Close()
	}
	return nil
}
