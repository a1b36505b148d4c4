package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/internal/config"
	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/embed"
	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/rerank"
	"github.com/equiprank/equiprank/internal/taxonomy"
)

// testDocs returns a fresh corpus for each test; engine construction
// mutates documents (groups, categories, embeddings).
func testDocs() []*corpus.Document {
	return []*corpus.Document{
		{ID: "eq-1", GroupID: "g-mop", Title: "Mop de limpeza industrial com cabo de alumínio"},
		{ID: "eq-2", GroupID: "g-asp", Title: "Aspirador de pó profissional 1400W"},
		{ID: "eq-3", GroupID: "g-car", Title: "Carrinho de limpeza funcional com balde"},
		{ID: "eq-4", GroupID: "g-bal", Title: "Balde espremedor amarelo 20 litros"},
		{ID: "eq-5", GroupID: "g-mop2", Title: "Mop úmido giratório com refil"},
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(context.Background(), nil, FromDocuments(testDocs()), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestSearchEndToEnd(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Search(context.Background(), Request{Query: "Aspirador de pó profissional"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	assert.Equal(t, "eq-2", resp.Results[0].ID)
	assert.Equal(t, taxonomy.CategoryAspirador, resp.Category)
	assert.Equal(t, "aspirador de po profissional", resp.Normalized)
	assert.False(t, resp.Fallback)
	assert.False(t, resp.Cached)
	assert.Contains(t, resp.Results[0].MatchedTerms, "aspirador")
	assert.Greater(t, resp.Results[0].Scores.Combined, 0.0)
	assert.Greater(t, resp.Results[0].Scores.Lexical, 0.0)
}

func TestSearchEmptyQuery(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Search(context.Background(), Request{Query: "   !!! "})
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeQueryEmpty, rerrors.CodeOf(err))
}

func TestSearchZeroResultsIsNotAnError(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Search(context.Background(), Request{Query: "zzz www qqq"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.False(t, resp.Fallback)
}

func TestSearchCacheHit(t *testing.T) {
	e := newTestEngine(t)
	req := Request{Query: "mop de limpeza"}

	first, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	require.Len(t, second.Results, len(first.Results))
	assert.Equal(t, first.Results[0].ID, second.Results[0].ID)

	req.BypassCache = true
	third, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestSearchFallbackOnEmbedderError(t *testing.T) {
	failing := &embed.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, rerrors.ProviderCallError("embedding service down", nil)
		},
	}
	e := newTestEngine(t, WithEmbedder(failing))

	resp, err := e.Search(context.Background(), Request{Query: "aspirador de po"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	assert.True(t, resp.Fallback)
	assert.Equal(t, FallbackError, resp.FallbackReason)
	assert.Equal(t, "eq-2", resp.Results[0].ID)
	for _, r := range resp.Results {
		assert.Zero(t, r.Scores.Semantic)
		assert.Equal(t, rerank.NeutralScore, r.Scores.Reranker)
	}

	// Degraded responses are never cached, so recovery is immediate.
	again, err := e.Search(context.Background(), Request{Query: "aspirador de po"})
	require.NoError(t, err)
	assert.False(t, again.Cached)
}

func TestSearchFallbackTimeoutReason(t *testing.T) {
	slow := &embed.MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, rerrors.New(rerrors.ErrCodeProviderTimeout, "deadline exceeded", nil)
		},
	}
	e := newTestEngine(t, WithEmbedder(slow))

	resp, err := e.Search(context.Background(), Request{Query: "balde espremedor"})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Equal(t, FallbackTimeout, resp.FallbackReason)
}

func TestSearchTopKLimit(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Search(context.Background(), Request{Query: "limpeza", TopK: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)

	raw, err := e.Search(context.Background(), Request{Query: "limpeza", TopK: 1, DisableDiversification: true, BypassCache: true})
	require.NoError(t, err)
	assert.Len(t, raw.Results, 1)
}

func TestSearchMinScoreFilters(t *testing.T) {
	e := newTestEngine(t)

	all, err := e.Search(context.Background(), Request{Query: "limpeza", DisableDiversification: true})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all.Results), 2)

	threshold := all.Results[0].Scores.Combined
	filtered, err := e.Search(context.Background(), Request{Query: "limpeza", MinScore: threshold, DisableDiversification: true})
	require.NoError(t, err)
	assert.Less(t, len(filtered.Results), len(all.Results))
	for _, r := range filtered.Results {
		assert.GreaterOrEqual(t, r.Scores.Combined, threshold)
	}

	none, err := e.Search(context.Background(), Request{Query: "limpeza", MinScore: 2.0})
	require.NoError(t, err)
	assert.Empty(t, none.Results)
}

func TestSearchNormalizedScore(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Search(context.Background(), Request{Query: "limpeza", DisableDiversification: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	assert.InDelta(t, 1.0, resp.Results[0].NormalizedScore, 1e-9)
	for i, r := range resp.Results {
		assert.LessOrEqual(t, r.NormalizedScore, 1.0)
		assert.Greater(t, r.NormalizedScore, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, r.NormalizedScore, resp.Results[i-1].NormalizedScore)
		}
	}
}

func TestSearchRelatedSuggestions(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Search(context.Background(), Request{Query: "mop umido giratorio"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.LessOrEqual(t, len(top.Related), e.cfg.Search.RelatedCount)
	assert.NotContains(t, top.Related, top.ID)
}

func TestSearchBatchPreservesOrder(t *testing.T) {
	e := newTestEngine(t)

	reqs := []Request{
		{Query: "mop industrial"},
		{Query: "aspirador profissional"},
		{Query: "balde amarelo"},
	}
	resps, err := e.SearchBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, resps, 3)
	for i, resp := range resps {
		assert.Equal(t, reqs[i].Query, resp.Query)
	}
}

func TestSearchBatchEmpty(t *testing.T) {
	e := newTestEngine(t)

	resps, err := e.SearchBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resps)
}

func TestSearchBatchTooBig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Search.MaxBatchQueries = 2
	e, err := New(context.Background(), cfg, FromDocuments(testDocs()))
	require.NoError(t, err)
	defer e.Close()

	reqs := []Request{{Query: "mop"}, {Query: "balde"}, {Query: "aspirador"}}
	_, err = e.SearchBatch(context.Background(), reqs)
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeBatchTooBig, rerrors.CodeOf(err))
}

func TestSearchBatchPropagatesBadQuery(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.SearchBatch(context.Background(), []Request{{Query: "mop"}, {Query: "   "}})
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeQueryEmpty, rerrors.CodeOf(err))
}

func TestNewRejectsEmptyCorpus(t *testing.T) {
	_, err := New(context.Background(), nil, FromDocuments(nil))
	require.Error(t, err)
	assert.True(t, rerrors.IsFatal(err))
}

func TestSnapshotRoundTripEquivalence(t *testing.T) {
	e1 := newTestEngine(t)
	snap := e1.Snapshot()
	require.NotNil(t, snap)

	e2, err := New(context.Background(), nil, FromSnapshot(testDocs(), snap))
	require.NoError(t, err)
	defer e2.Close()

	query := Request{Query: "carrinho de limpeza funcional"}
	r1, err := e1.Search(context.Background(), query)
	require.NoError(t, err)
	r2, err := e2.Search(context.Background(), query)
	require.NoError(t, err)

	require.Len(t, r2.Results, len(r1.Results))
	for i := range r1.Results {
		assert.Equal(t, r1.Results[i].ID, r2.Results[i].ID)
	}
}

func TestSnapshotCorpusMismatch(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Snapshot()

	_, err := New(context.Background(), nil, FromSnapshot(testDocs()[:3], snap))
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeSnapshotCorrupt, rerrors.CodeOf(err))
}

func TestStats(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Search(context.Background(), Request{Query: "mop de limpeza"})
	require.NoError(t, err)

	s := e.Stats()
	assert.Equal(t, 5, s.Documents)
	assert.Positive(t, s.Terms)
	assert.Equal(t, 1, s.CachedQueries)
	assert.Equal(t, "static-256", s.EmbedderModel)
	require.NotNil(t, s.Metrics)
	assert.Equal(t, int64(1), s.Metrics.TotalQueries)
}
