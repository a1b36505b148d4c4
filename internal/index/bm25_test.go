package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/internal/corpus"
)

func sampleDocs() []*corpus.Document {
	docs := []*corpus.Document{
		{ID: "eq-1", Title: "Mop de limpeza industrial", RawText: "mop de limpeza industrial com cabo de aluminio"},
		{ID: "eq-2", Title: "Aspirador de pó profissional", RawText: "aspirador de po profissional 1400w"},
		{ID: "eq-3", Title: "Carrinho de limpeza funcional", RawText: "carrinho de limpeza funcional com balde"},
		{ID: "eq-4", Title: "Balde espremedor amarelo", RawText: "balde espremedor amarelo 20 litros"},
	}
	corpus.Prepare(docs)
	return docs
}

func TestBuildStats(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())
	assert.Equal(t, 4, ix.DocCount())
	assert.Greater(t, ix.TermCount(), 10)
}

func TestSearchExactMatch(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())

	results := ix.Search("mop", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "eq-1", results[0].DocID)
	assert.False(t, results[0].Fuzzy)
	assert.Contains(t, results[0].MatchedTerms, "mop")
}

func TestSearchMultiTermRanking(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())

	// Both limpeza docs match; the mop doc also matches "mop" so it
	// must rank above the carrinho doc.
	results := ix.Search("mop limpeza", 0)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, "eq-1", results[0].DocID)
}

func TestSearchFuzzyFallback(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())

	// "aspirdor" is a typo absent from the vocabulary; its consonant
	// signature matches "aspirador".
	results := ix.Search("aspirdor", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "eq-2", results[0].DocID)
	assert.True(t, results[0].Fuzzy)
	assert.Contains(t, results[0].MatchedTerms, "aspirador")
}

func TestFuzzyNeverOutranksExact(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())

	exact := ix.Search("aspirador", 0)
	fuzzy := ix.Search("aspirdor", 0)
	require.NotEmpty(t, exact)
	require.NotEmpty(t, fuzzy)
	assert.Less(t, fuzzy[0].Score, exact[0].Score)
}

func TestSearchNoMatch(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())
	assert.Empty(t, ix.Search("zzzz", 0))
	assert.Empty(t, ix.Search("", 0))
	assert.Empty(t, ix.Search("   ", 0))
}

func TestSearchLimit(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())
	results := ix.Search("limpeza de", 1)
	assert.Len(t, results, 1)
}

func TestSearchDeterministicOrder(t *testing.T) {
	// Two documents with identical text score identically; ties break
	// by ascending document id.
	docs := []*corpus.Document{
		{ID: "b", RawText: "rodo de aluminio"},
		{ID: "a", RawText: "rodo de aluminio"},
	}
	corpus.Prepare(docs)
	ix := Build(docs, DefaultConfig())

	for i := 0; i < 5; i++ {
		results := ix.Search("rodo", 0)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].DocID)
		assert.Equal(t, "b", results[1].DocID)
		assert.Equal(t, results[0].Score, results[1].Score)
	}
}

func TestSearchRepeatedQueryTokensCountOnce(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())
	once := ix.Search("mop", 0)
	twice := ix.Search("mop mop", 0)
	require.NotEmpty(t, once)
	require.NotEmpty(t, twice)
	assert.Equal(t, once[0].Score, twice[0].Score)
}

func TestBuildSanitizesConfig(t *testing.T) {
	ix := Build(sampleDocs(), Config{K1: -1, B: 7, SignatureLength: 0})
	assert.Equal(t, DefaultConfig(), ix.cfg)
}

func TestIDFPositive(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())
	// "de" appears in every document; smoothed idf must stay positive.
	assert.Greater(t, ix.idf(ix.DocCount()), 0.0)
}
