package abbrev

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry provides process-wide, lazily loaded access to the compiled
// abbreviation maps. The first Get triggers the load; concurrent first
// callers share one in-flight load; the result (including absence) is
// memoized until Reset.
type Registry struct {
	path string

	mu       sync.RWMutex
	loaded   bool
	compiled *Compiled

	group singleflight.Group
}

// NewRegistry creates a registry for the artifact at path.
// An empty path means the artifact is permanently absent.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Get returns the compiled maps, loading them on first use.
// Returns nil when the artifact is absent or malformed; that outcome is
// memoized, so the file is not re-read per query.
func (r *Registry) Get(ctx context.Context) *Compiled {
	r.mu.RLock()
	if r.loaded {
		c := r.compiled
		r.mu.RUnlock()
		return c
	}
	r.mu.RUnlock()

	v, _, _ := r.group.Do("load", func() (interface{}, error) {
		r.mu.RLock()
		if r.loaded {
			c := r.compiled
			r.mu.RUnlock()
			return c, nil
		}
		r.mu.RUnlock()

		var compiled *Compiled
		if r.path != "" {
			c, err := LoadFile(r.path)
			if err != nil {
				slog.WarnContext(ctx, "abbreviation artifact unavailable, rewriting degrades to passthrough",
					slog.String("path", r.path),
					slog.String("error", err.Error()))
			} else {
				compiled = c
				slog.DebugContext(ctx, "abbreviation artifact loaded",
					slog.String("path", r.path),
					slog.Int("entries", c.Len()))
			}
		}

		r.mu.Lock()
		r.compiled = compiled
		r.loaded = true
		r.mu.Unlock()
		return compiled, nil
	})
	if v == nil {
		return nil
	}
	return v.(*Compiled)
}

// Reset clears the memoized state so the next Get reloads.
// Intended for test isolation and for artifact hot-swaps.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.compiled = nil
	r.loaded = false
	r.mu.Unlock()
}
