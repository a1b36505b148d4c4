package rerank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineWeightedSum(t *testing.T) {
	w := Weights{Lexical: 0.5, Semantic: 0.3, Reranker: 0.1, Domain: 0.1}
	b := ScoreBreakdown{Lexical: 1, Semantic: 0.5, Reranker: 0, Domain: 1}

	assert.InDelta(t, 0.75, w.Combine(b), 1e-9)

	applied := w.Apply(b)
	assert.InDelta(t, 0.75, applied.Combined, 1e-9)
}

func TestCombineMonotonicInEachSignal(t *testing.T) {
	w := DefaultWeights()
	base := ScoreBreakdown{Lexical: 0.4, Semantic: 0.4, Reranker: 0.4, Domain: 0.4}
	baseScore := w.Combine(base)

	bumps := []ScoreBreakdown{
		{Lexical: 0.5, Semantic: 0.4, Reranker: 0.4, Domain: 0.4},
		{Lexical: 0.4, Semantic: 0.5, Reranker: 0.4, Domain: 0.4},
		{Lexical: 0.4, Semantic: 0.4, Reranker: 0.5, Domain: 0.4},
		{Lexical: 0.4, Semantic: 0.4, Reranker: 0.4, Domain: 0.5},
	}
	for _, b := range bumps {
		assert.Greater(t, w.Combine(b), baseScore)
	}
}

func TestNeutralRerankerPreservesOrdering(t *testing.T) {
	w := DefaultWeights()

	better := ScoreBreakdown{Lexical: 0.9, Semantic: 0.8, Reranker: NeutralScore, Domain: 0.5}
	worse := ScoreBreakdown{Lexical: 0.3, Semantic: 0.4, Reranker: NeutralScore, Domain: 0.5}

	assert.Greater(t, w.Combine(better), w.Combine(worse))
}
