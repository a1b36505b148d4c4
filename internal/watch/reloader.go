package watch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/equiprank/equiprank/internal/engine"
)

// Handle is the atomic engine pointer searches go through. Swapping it
// is the only corpus-mutation path: the engine itself stays read-only.
type Handle struct {
	ptr atomic.Pointer[engine.Engine]
}

// NewHandle wraps the initial engine.
func NewHandle(e *engine.Engine) *Handle {
	h := &Handle{}
	h.ptr.Store(e)
	return h
}

// Engine returns the current engine.
func (h *Handle) Engine() *engine.Engine {
	return h.ptr.Load()
}

// swap installs a new engine and returns the previous one.
func (h *Handle) swap(e *engine.Engine) *engine.Engine {
	return h.ptr.Swap(e)
}

// BuildFunc constructs a fresh engine from the current corpus state.
type BuildFunc func(ctx context.Context) (*engine.Engine, error)

// Reloader ties a file watcher to an engine handle: each settled corpus
// change triggers a rebuild, and the handle is swapped only when the
// build succeeds. A failed rebuild keeps the old engine serving.
type Reloader struct {
	handle  *Handle
	watcher *Watcher
	build   BuildFunc
	logger  *slog.Logger
}

// NewReloader creates a reloader. A nil logger falls back to the default.
func NewReloader(h *Handle, w *Watcher, build BuildFunc, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{handle: h, watcher: w, build: build, logger: logger}
}

// Run processes change signals until ctx is cancelled. It starts the
// watcher itself; callers only provide the context.
func (r *Reloader) Run(ctx context.Context) {
	r.watcher.Start(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-r.watcher.Errors():
			if !ok {
				return
			}
			r.logger.WarnContext(ctx, "corpus watcher error", slog.String("error", err.Error()))
		case _, ok := <-r.watcher.Changes():
			if !ok {
				return
			}
			r.reload(ctx)
		}
	}
}

func (r *Reloader) reload(ctx context.Context) {
	start := time.Now()
	fresh, err := r.build(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "corpus reload failed, keeping current engine",
			slog.String("error", err.Error()))
		return
	}

	old := r.handle.swap(fresh)
	if old != nil {
		if err := old.Close(); err != nil {
			r.logger.WarnContext(ctx, "closing replaced engine", slog.String("error", err.Error()))
		}
	}
	r.logger.InfoContext(ctx, "corpus reloaded",
		slog.Int("documents", fresh.Stats().Documents),
		slog.Duration("elapsed", time.Since(start)))
}
