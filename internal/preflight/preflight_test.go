package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/internal/config"
	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/index"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	corpusPath := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(`[
		{"id": "eq-1", "title": "Mop de limpeza industrial"},
		{"id": "eq-2", "title": "Balde espremedor amarelo"}
	]`), 0o644))

	cfg := config.NewConfig()
	cfg.Paths.Corpus = corpusPath
	cfg.Paths.Snapshot = filepath.Join(dir, "index.snapshot.json")
	return cfg
}

func resultByName(results []CheckResult, name string) CheckResult {
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	return CheckResult{}
}

func TestRunHealthyWorkspace(t *testing.T) {
	cfg := testConfig(t)
	results := Run(context.Background(), cfg)

	require.Len(t, results, 5)
	assert.True(t, Healthy(results))
	assert.Equal(t, StatusPass, resultByName(results, "config").Status)
	assert.Equal(t, StatusPass, resultByName(results, "corpus").Status)
	assert.Equal(t, StatusPass, resultByName(results, "embedder").Status)
	assert.Equal(t, StatusPass, resultByName(results, "reranker").Status)

	// No snapshot yet: warn, not fail.
	snap := resultByName(results, "snapshot")
	assert.Equal(t, StatusWarn, snap.Status)
	assert.False(t, snap.IsCritical())
}

func TestRunWithSnapshot(t *testing.T) {
	cfg := testConfig(t)

	docs, err := corpus.Load(cfg.Paths.Corpus)
	require.NoError(t, err)
	ix := index.Build(docs, index.DefaultConfig())
	require.NoError(t, index.Save(cfg.Paths.Snapshot, ix.Snapshot()))

	results := Run(context.Background(), cfg)
	assert.Equal(t, StatusPass, resultByName(results, "snapshot").Status)
}

func TestRunMissingCorpus(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Corpus = filepath.Join(t.TempDir(), "absent.json")

	results := Run(context.Background(), cfg)
	corpusCheck := resultByName(results, "corpus")
	assert.Equal(t, StatusFail, corpusCheck.Status)
	assert.True(t, corpusCheck.IsCritical())
	assert.False(t, Healthy(results))
}

func TestRunMisconfiguredProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embeddings.Provider = "hf" // no endpoint

	results := Run(context.Background(), cfg)
	assert.Equal(t, StatusFail, resultByName(results, "embedder").Status)
	assert.False(t, Healthy(results))
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.BM25K1 = -1

	results := Run(context.Background(), cfg)
	assert.Equal(t, StatusFail, resultByName(results, "config").Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
}
