package rerank

// Weights holds the linear combination weights for the four ranking
// signals. All weights are non-negative; they need not sum to one.
type Weights struct {
	Lexical  float64
	Semantic float64
	Reranker float64
	Domain   float64
}

// DefaultWeights returns the combination tuned for short equipment
// descriptions: semantics carry the most signal, lexical overlap anchors
// exact matches, the cross-encoder refines, domain priors nudge.
func DefaultWeights() Weights {
	return Weights{
		Lexical:  0.30,
		Semantic: 0.35,
		Reranker: 0.25,
		Domain:   0.10,
	}
}

// ScoreBreakdown carries the per-signal scores of one candidate alongside
// the combined total, so every ranking decision stays explainable.
type ScoreBreakdown struct {
	// Lexical is the normalized BM25 score in [0,1].
	Lexical float64 `json:"lexical"`
	// Semantic is the embedding cosine similarity mapped to [0,1].
	Semantic float64 `json:"semantic"`
	// Reranker is the cross-encoder score in [0,1].
	Reranker float64 `json:"reranker"`
	// Domain is the taxonomy affinity score in [0,1].
	Domain float64 `json:"domain"`
	// Combined is the weighted sum of the four signals.
	Combined float64 `json:"combined"`
}

// Combine computes the weighted sum. The result is monotonic in every
// signal because weights are non-negative.
func (w Weights) Combine(b ScoreBreakdown) float64 {
	return w.Lexical*b.Lexical +
		w.Semantic*b.Semantic +
		w.Reranker*b.Reranker +
		w.Domain*b.Domain
}

// Apply fills Combined from the other fields and returns the breakdown.
func (w Weights) Apply(b ScoreBreakdown) ScoreBreakdown {
	b.Combined = w.Combine(b)
	return b
}
