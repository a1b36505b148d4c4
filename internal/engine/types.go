package engine

import (
	"time"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/rerank"
	"github.com/equiprank/equiprank/internal/rewrite"
	"github.com/equiprank/equiprank/internal/taxonomy"
	"github.com/equiprank/equiprank/internal/telemetry"
)

// Fallback reasons reported when the pipeline degrades to lexical-only
// scoring.
const (
	FallbackTimeout = "timeout"
	FallbackError   = "error"
)

// Request is one search request.
type Request struct {
	// Query is the raw free-text equipment description.
	Query string `json:"query"`
	// TopK is the result count (0 = configured default).
	TopK int `json:"top_k,omitempty"`
	// MinScore drops results whose combined score falls below it.
	MinScore float64 `json:"min_score,omitempty"`
	// DisableExpansion turns off generic-token query expansion.
	DisableExpansion bool `json:"disable_expansion,omitempty"`
	// DisableDiversification returns the raw ranking.
	DisableDiversification bool `json:"disable_diversification,omitempty"`
	// BypassCache forces a fresh pipeline run.
	BypassCache bool `json:"bypass_cache,omitempty"`
}

// Result is one ranked document.
type Result struct {
	ID       string            `json:"id"`
	GroupID  string            `json:"group_id,omitempty"`
	Title    string            `json:"title"`
	Category taxonomy.Category `json:"category"`

	// Scores carries the per-signal breakdown behind the ranking.
	Scores rerank.ScoreBreakdown `json:"scores"`
	// NormalizedScore is the combined score relative to the best
	// returned result (top = 1.0), for display thresholds.
	NormalizedScore float64 `json:"normalized_score"`

	// MatchedTerms lists the lexical terms that matched this document.
	MatchedTerms []string `json:"matched_terms,omitempty"`
	// Fuzzy is true when only the typo-tolerant channel matched.
	Fuzzy bool `json:"fuzzy,omitempty"`

	// Related lists group-distinct similar equipment ids.
	Related []string `json:"related,omitempty"`

	// Metrics carries the document's aggregated numeric metrics.
	Metrics corpus.Metrics `json:"metrics,omitempty"`
}

// Response is the outcome of one search. A well-formed query always
// yields a Response, possibly with zero results and possibly degraded.
type Response struct {
	Query      string            `json:"query"`
	Normalized string            `json:"normalized"`
	Category   taxonomy.Category `json:"category"`

	// Plan records how the query was rewritten.
	Plan rewrite.Plan `json:"plan"`

	Results []Result `json:"results"`

	// Fallback marks lexical-only degradation; FallbackReason is
	// "timeout" or "error".
	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Cached marks a response served from the result cache.
	Cached bool `json:"cached,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Stats summarizes engine state for diagnostics.
type Stats struct {
	Documents     int                 `json:"documents"`
	Terms         int                 `json:"terms"`
	CachedQueries int                 `json:"cached_queries"`
	EmbedderModel string              `json:"embedder_model"`
	RerankerModel string              `json:"reranker_model"`
	Metrics       *telemetry.Snapshot `json:"metrics,omitempty"`
}
