// Package watch reloads the engine when the corpus file changes on disk.
//
// The corpus is read-mostly: queries never mutate it, and edits arrive as
// whole-file rewrites. A debounced fsnotify watcher turns those rewrites
// into change signals, and a Reloader rebuilds the engine and swaps it
// behind an atomic pointer. The old engine keeps serving until the new
// build succeeds.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// DefaultDebounce is the quiet window before a change signal is emitted.
// Editors and atomic-rename writers produce bursts of events per save.
const DefaultDebounce = 200 * time.Millisecond

// Options configures the file watcher.
type Options struct {
	// Debounce is the coalescing window (0 = DefaultDebounce).
	Debounce time.Duration
}

// Watcher emits one signal per settled change of a single file. It
// watches the parent directory so rename-replace saves are seen.
type Watcher struct {
	path string
	base string
	opts Options

	fw      *fsnotify.Watcher
	changes chan time.Time
	errs    chan error

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a watcher for the file at path. The file itself need not
// exist yet; its directory must.
func New(path string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInvalidInput, err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, rerrors.New(rerrors.ErrCodeArtifactMissing, "watch "+filepath.Dir(abs)+": "+err.Error(), err)
	}

	return &Watcher{
		path:    abs,
		base:    filepath.Base(abs),
		opts:    opts,
		fw:      fw,
		changes: make(chan time.Time, 1),
		errs:    make(chan error, 1),
	}, nil
}

// Start runs the event loop until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// schedule restarts the debounce timer; the signal fires once the file
// has been quiet for the full window.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.emit)
}

func (w *Watcher) emit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case w.changes <- time.Now():
	default:
		// A signal is already pending; one reload covers both.
	}
}

// Changes returns the change signal channel. At most one signal is
// buffered: bursts collapse into a single reload.
func (w *Watcher) Changes() <-chan time.Time {
	return w.changes
}

// Errors returns non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fw.Close()
}
