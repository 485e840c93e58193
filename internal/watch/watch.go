// Package watch reports changes to the headers preambles were built from,
// so that stale snapshots can be dropped before the next build.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"

	"lantern/internal/vfs"
)

var log = commonlog.GetLogger("lantern.watch")

// DefaultDelay groups the events of one save into a single notification.
const DefaultDelay = 100 * time.Millisecond

// Handler receives the watched files that changed, sorted.
type Handler func(changed []string)

// Watcher watches individual files through their directories and calls the
// handler with debounced batches of changed files.
type Watcher struct {
	fsw     *fsnotify.Watcher
	delay   time.Duration
	handler Handler

	mu      sync.Mutex
	dirs    map[string]bool
	files   map[string]bool
	pending map[string]bool
	timer   *time.Timer
	closed  bool
}

// New creates a watcher. A zero delay selects DefaultDelay.
func New(delay time.Duration, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{
		fsw:     fsw,
		delay:   delay,
		handler: handler,
		dirs:    make(map[string]bool),
		files:   make(map[string]bool),
		pending: make(map[string]bool),
	}, nil
}

// WatchFiles adds files to the watched set. Directories are registered
// once; a file that does not exist yet is reported when it appears.
func (w *Watcher) WatchFiles(paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for _, p := range paths {
		p = vfs.Clean(p)
		if w.files[p] {
			continue
		}
		w.files[p] = true
		dir := filepath.Dir(p)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			log.Warningf("failed to watch directory %s: %s", dir, err)
			continue
		}
		w.dirs[dir] = true
	}
}

// Watched is the number of files in the watched set.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warningf("watcher error: %s", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path := vfs.Clean(event.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.files[path] {
		return
	}
	w.pending[path] = true
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.flush)
	} else {
		w.timer.Reset(w.delay)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(changed)
	log.Debugf("changed: %v", changed)
	if w.handler != nil {
		w.handler(changed)
	}
}

// Close stops the watcher; pending changes are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
