package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/engine"
)

const (
	smallCorpus = `[
		{"id": "eq-1", "title": "Mop de limpeza industrial"},
		{"id": "eq-2", "title": "Balde espremedor amarelo"}
	]`
	grownCorpus = `[
		{"id": "eq-1", "title": "Mop de limpeza industrial"},
		{"id": "eq-2", "title": "Balde espremedor amarelo"},
		{"id": "eq-3", "title": "Aspirador de po profissional"}
	]`
)

func buildFromFile(path string) BuildFunc {
	return func(ctx context.Context) (*engine.Engine, error) {
		docs, err := corpus.Load(path)
		if err != nil {
			return nil, err
		}
		return engine.New(ctx, nil, engine.FromDocuments(docs))
	}
}

func TestReloaderSwapsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(smallCorpus), 0o644))

	build := buildFromFile(path)
	initial, err := build(context.Background())
	require.NoError(t, err)
	handle := NewHandle(initial)

	w, err := New(path, Options{Debounce: testDebounce})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewReloader(handle, w, build, nil).Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte(grownCorpus), 0o644))

	require.Eventually(t, func() bool {
		return handle.Engine().Stats().Documents == 3
	}, 5*time.Second, 10*time.Millisecond)
}

func TestReloaderKeepsOldEngineOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(smallCorpus), 0o644))

	initial, err := buildFromFile(path)(context.Background())
	require.NoError(t, err)
	defer initial.Close()
	handle := NewHandle(initial)

	var builds atomic.Int64
	failing := func(ctx context.Context) (*engine.Engine, error) {
		builds.Add(1)
		return nil, corpus.Validate(nil)
	}

	w, err := New(path, Options{Debounce: testDebounce})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewReloader(handle, w, failing, nil).Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	require.Eventually(t, func() bool {
		return builds.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Same(t, initial, handle.Engine())
	assert.Equal(t, 2, handle.Engine().Stats().Documents)
}
