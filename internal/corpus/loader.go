package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/taxonomy"
)

// Load reads and validates a JSON document collection.
// A malformed or empty corpus is fatal: the engine cannot serve without
// a complete corpus, so no partial result is ever returned.
func Load(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rerrors.New(rerrors.ErrCodeCorpusNotFound, fmt.Sprintf("read corpus %s: %v", path, err), err)
	}

	var docs []*Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, rerrors.New(rerrors.ErrCodeCorpusInvalid, fmt.Sprintf("parse corpus %s: %v", path, err), err)
	}

	if err := Validate(docs); err != nil {
		return nil, err
	}
	Prepare(docs)
	return docs, nil
}

// Validate checks structural corpus invariants: non-empty collection,
// present and unique ids.
func Validate(docs []*Document) error {
	if len(docs) == 0 {
		return rerrors.CorpusError("corpus is empty", nil)
	}
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		if d == nil || d.ID == "" {
			return rerrors.CorpusError(fmt.Sprintf("document %d has no id", i), nil)
		}
		if seen[d.ID] {
			return rerrors.CorpusError(fmt.Sprintf("duplicate document id %q", d.ID), nil)
		}
		seen[d.ID] = true
		if d.IndexText() == "" {
			return rerrors.CorpusError(fmt.Sprintf("document %q has no indexable text", d.ID), nil)
		}
	}
	return nil
}

// Prepare fills derived fields: legacy metric fallbacks, group defaults,
// and the persisted category when ingestion did not supply one.
func Prepare(docs []*Document) {
	for _, d := range docs {
		d.normalizeLegacy()
		if d.GroupID == "" {
			d.GroupID = d.ID
		}
		if d.DocCategory == "" {
			d.DocCategory = taxonomy.Detect(d.DisplayTitle())
		}
	}
}

// Registry provides process-wide, lazily loaded access to the corpus.
// Concurrent first callers share one in-flight load; the outcome is
// memoized for the process lifetime (Reset exists for tests and for
// rebuild-and-swap flows).
type Registry struct {
	path string

	mu     sync.RWMutex
	loaded bool
	docs   []*Document
	err    error

	group singleflight.Group
}

// NewRegistry creates a corpus registry for the collection at path.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Get returns the corpus, loading it on first use. Unlike optional
// artifacts, a load failure is memoized and returned to every caller:
// a broken corpus is fatal, not degradable.
func (r *Registry) Get(ctx context.Context) ([]*Document, error) {
	r.mu.RLock()
	if r.loaded {
		docs, err := r.docs, r.err
		r.mu.RUnlock()
		return docs, err
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do("load", func() (interface{}, error) {
		r.mu.RLock()
		if r.loaded {
			docs, err := r.docs, r.err
			r.mu.RUnlock()
			return docs, err
		}
		r.mu.RUnlock()

		docs, err := Load(r.path)
		if err != nil {
			slog.ErrorContext(ctx, "corpus load failed",
				slog.String("path", r.path),
				slog.String("error", err.Error()))
		} else {
			slog.InfoContext(ctx, "corpus loaded",
				slog.String("path", r.path),
				slog.Int("documents", len(docs)))
		}

		r.mu.Lock()
		r.docs, r.err = docs, err
		r.loaded = true
		r.mu.Unlock()
		return docs, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Document), nil
}

// Reset clears the memoized corpus so the next Get reloads from disk.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.docs, r.err = nil, nil
	r.loaded = false
	r.mu.Unlock()
}
