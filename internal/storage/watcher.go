package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"callflow/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a single flow file. The parent directory is
// watched so that atomic saves, which replace the file, are seen too.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	changes  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	started  bool
	closer   sync.Once
}

// NewWatcher prepares a watcher for path. Call Start to begin watching.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fw,
		path:     abs,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Changes delivers one value per debounced burst of changes. Pending
// notifications are coalesced. The channel is closed once the watcher stops.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching in a background goroutine. It stops on ctx
// cancellation or Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.running = true
	w.started = true
	go w.run(ctx)
	logging.Debug(subsystem, "watching %s", w.path)
	return nil
}

// Stop ends the watch and waits for the goroutine to exit. It is safe to call
// more than once and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	started := w.started
	w.running = false
	w.mu.Unlock()

	if !started {
		w.closeChanges()
	}
	if running {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	if err := w.fs.Close(); err != nil {
		logging.Error(subsystem, err, "error closing watcher")
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.closeChanges()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Error(subsystem, err, "watch error on %s", w.path)
		case <-timer.C:
			w.notify()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) closeChanges() {
	w.closer.Do(func() { close(w.changes) })
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
		logging.Debug(subsystem, "change notification sent for %s", w.path)
	default:
		// a notification is already pending
	}
}
