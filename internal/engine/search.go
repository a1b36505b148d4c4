package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/equiprank/equiprank/internal/abbrev"
	"github.com/equiprank/equiprank/internal/cache"
	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/diversify"
	"github.com/equiprank/equiprank/internal/embed"
	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/rerank"
	"github.com/equiprank/equiprank/internal/rewrite"
	"github.com/equiprank/equiprank/internal/taxonomy"
	"github.com/equiprank/equiprank/internal/telemetry"
	"github.com/equiprank/equiprank/internal/textnorm"
)

// candidate accumulates the per-document pipeline state.
type candidate struct {
	doc          *corpus.Document
	lexRaw       float64
	matchedTerms []string
	fuzzy        bool
	scores       rerank.ScoreBreakdown
}

// Search runs the full pipeline for one query. A well-formed query never
// errors: provider failures and deadline overruns degrade to the
// lexical-only path and are reported on the Response.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	normalized := textnorm.Normalize(req.Query)
	if normalized == "" {
		return nil, rerrors.New(rerrors.ErrCodeQueryEmpty, "query is empty after normalization", nil)
	}
	topK := e.clampTopK(req.TopK)

	key := cache.Key(normalized, topK, fmt.Sprintf("min=%g", req.MinScore))
	if e.results != nil && !req.BypassCache {
		if hit, ok := e.results.Get(key); ok {
			resp := *hit
			resp.Cached = true
			resp.Elapsed = time.Since(start)
			e.record(resp, start)
			return &resp, nil
		}
	}

	category := taxonomy.Detect(normalized)

	var compiled *abbrev.Compiled
	if e.abbrevs != nil {
		compiled = e.abbrevs.Get(ctx)
	}
	plan := rewrite.Rewrite(req.Query, compiled, rewrite.Options{
		MaxVariants:      e.cfg.Search.MaxVariants,
		MaxExpansions:    e.cfg.Search.MaxExpansions,
		DisableExpansion: req.DisableExpansion,
	})

	candidates := e.retrieve(plan)

	resp := &Response{
		Query:      req.Query,
		Normalized: normalized,
		Category:   category,
		Plan:       plan,
	}

	if len(candidates) > 0 {
		qctx, cancel := context.WithTimeout(ctx, e.cfg.Search.Timeout.Std())
		reason := e.scoreSemantic(qctx, plan.Primary, candidates)
		cancel()
		if reason != "" {
			resp.Fallback = true
			resp.FallbackReason = reason
		}

		e.scoreDomain(category, candidates)
		for _, c := range candidates {
			c.scores = e.weights.Apply(c.scores)
		}
		sortByCombined(candidates)
		if req.MinScore > 0 {
			candidates = aboveMinScore(candidates, req.MinScore)
		}

		selected := e.diversifyCandidates(candidates, category, topK, req.DisableDiversification)
		resp.Results = e.buildResults(selected)
	} else {
		resp.Results = []Result{}
	}

	resp.Elapsed = time.Since(start)

	if e.results != nil && !resp.Fallback {
		cached := *resp
		e.results.Set(key, &cached)
	}
	e.record(*resp, start)

	e.logger.DebugContext(ctx, "search complete",
		slog.String("query", normalized),
		slog.String("category", string(category)),
		slog.Int("variants", len(plan.Variants)),
		slog.Int("results", len(resp.Results)),
		slog.Bool("fallback", resp.Fallback),
		slog.Duration("elapsed", resp.Elapsed))
	return resp, nil
}

// clampTopK applies the configured default and ceiling.
func (e *Engine) clampTopK(topK int) int {
	if topK <= 0 {
		topK = e.cfg.Search.TopK
	}
	if topK > e.cfg.Search.MaxTopK {
		topK = e.cfg.Search.MaxTopK
	}
	return topK
}

// retrieve runs the lexical channel for every plan variant and merges
// per-document evidence: each document keeps its best weighted BM25
// score across variants. Scores are then normalized to [0,1] by the max.
func (e *Engine) retrieve(plan rewrite.Plan) []*candidate {
	pool := e.cfg.Reranker.PoolSize
	if pool <= 0 {
		pool = rerank.DefaultPoolSize
	}

	byDoc := make(map[string]*candidate)
	for _, v := range plan.Variants {
		for _, hit := range e.ix.Search(v.Query, pool) {
			doc, ok := e.byID[hit.DocID]
			if !ok {
				continue
			}
			c := byDoc[hit.DocID]
			if c == nil {
				c = &candidate{doc: doc, fuzzy: true}
				byDoc[hit.DocID] = c
			}
			if weighted := v.Weight * hit.Score; weighted > c.lexRaw {
				c.lexRaw = weighted
			}
			c.matchedTerms = mergeTerms(c.matchedTerms, hit.MatchedTerms)
			if !hit.Fuzzy {
				c.fuzzy = false
			}
		}
	}

	candidates := make([]*candidate, 0, len(byDoc))
	var maxLex float64
	for _, c := range byDoc {
		candidates = append(candidates, c)
		if c.lexRaw > maxLex {
			maxLex = c.lexRaw
		}
	}
	if maxLex > 0 {
		for _, c := range candidates {
			c.scores.Lexical = c.lexRaw / maxLex
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].scores.Lexical != candidates[j].scores.Lexical {
			return candidates[i].scores.Lexical > candidates[j].scores.Lexical
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})
	if len(candidates) > pool {
		candidates = candidates[:pool]
	}
	return candidates
}

// scoreSemantic fills the semantic and reranker signals. On provider
// failure or deadline overrun it zeroes the semantic channel, neutralizes
// the reranker, and returns the fallback reason; combined scoring then
// reduces to the lexical-plus-domain path.
func (e *Engine) scoreSemantic(ctx context.Context, primary string, candidates []*candidate) string {
	neutralize := func() {
		for _, c := range candidates {
			c.scores.Semantic = 0
			c.scores.Reranker = rerank.NeutralScore
		}
	}

	qvec, err := e.embedder.Embed(ctx, primary)
	if err != nil {
		neutralize()
		return fallbackReason(err)
	}
	for _, c := range candidates {
		if len(c.doc.Embedding) > 0 {
			c.scores.Semantic = clamp01((embed.Cosine(qvec, c.doc.Embedding) + 1) / 2)
		}
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.doc.SemanticBody()
	}
	scores, err := e.crossEncoder.Score(ctx, primary, texts)
	if err != nil || len(scores) != len(candidates) {
		for _, c := range candidates {
			c.scores.Reranker = rerank.NeutralScore
		}
		if err == nil {
			err = rerrors.New(rerrors.ErrCodeProviderBadResponse, "reranker score count mismatch", nil)
		}
		return fallbackReason(err)
	}
	for i, c := range candidates {
		c.scores.Reranker = clamp01(scores[i])
	}
	return ""
}

// scoreDomain fills the taxonomy affinity signal: full credit for a
// category match, neutral when either side is unknown, near-zero for a
// contradiction.
func (e *Engine) scoreDomain(queryCategory taxonomy.Category, candidates []*candidate) {
	for _, c := range candidates {
		switch {
		case !taxonomy.IsKnown(queryCategory) || !taxonomy.IsKnown(c.doc.DocCategory):
			c.scores.Domain = 0.5
		case c.doc.DocCategory == queryCategory:
			c.scores.Domain = 1.0
		default:
			c.scores.Domain = 0.1
		}
	}
}

// diversifyCandidates applies subtype diversification unless disabled.
func (e *Engine) diversifyCandidates(candidates []*candidate, category taxonomy.Category, topK int, disabled bool) []*candidate {
	if disabled {
		if len(candidates) > topK {
			candidates = candidates[:topK]
		}
		return candidates
	}

	items := make([]diversify.Item, len(candidates))
	byID := make(map[string]*candidate, len(candidates))
	for i, c := range candidates {
		items[i] = diversify.Item{Doc: c.doc, Score: c.scores.Combined}
		byID[c.doc.ID] = c
	}

	picked := diversify.Apply(items, category, diversify.Options{
		TopK:                topK,
		MaxPerSubtype:       e.cfg.Search.MaxPerSubtype,
		MinCategoryCoverage: e.cfg.Search.MinCategoryCoverage,
	})

	out := make([]*candidate, 0, len(picked))
	for _, item := range picked {
		out = append(out, byID[item.Doc.ID])
	}
	return out
}

// aboveMinScore keeps the sorted prefix with combined >= threshold.
func aboveMinScore(candidates []*candidate, threshold float64) []*candidate {
	for i, c := range candidates {
		if c.scores.Combined < threshold {
			return candidates[:i]
		}
	}
	return candidates
}

// buildResults converts candidates into API results with suggestions.
// Normalized scores are relative to the best returned result.
func (e *Engine) buildResults(candidates []*candidate) []Result {
	var best float64
	for _, c := range candidates {
		if c.scores.Combined > best {
			best = c.scores.Combined
		}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		r := Result{
			ID:           c.doc.ID,
			GroupID:      c.doc.GroupID,
			Title:        c.doc.DisplayTitle(),
			Category:     c.doc.DocCategory,
			Scores:       c.scores,
			MatchedTerms: c.matchedTerms,
			Fuzzy:        c.fuzzy,
			Metrics:      c.doc.Metrics,
		}
		if best > 0 {
			r.NormalizedScore = c.scores.Combined / best
		}
		if e.graph != nil {
			r.Related = e.graph.Related(c.doc.ID, e.cfg.Search.RelatedCount)
		}
		results = append(results, r)
	}
	return results
}

// record feeds the telemetry collector.
func (e *Engine) record(resp Response, start time.Time) {
	e.metrics.Record(telemetry.QueryEvent{
		Query:       resp.Normalized,
		Category:    resp.Category,
		ResultCount: len(resp.Results),
		Latency:     time.Since(start),
		CacheHit:    resp.Cached,
		Fallback:    resp.Fallback,
		Timestamp:   start,
	})
}

// fallbackReason classifies a degradation cause for the response.
func fallbackReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || rerrors.CodeOf(err) == rerrors.ErrCodeProviderTimeout {
		return FallbackTimeout
	}
	return FallbackError
}

// sortByCombined orders candidates by combined score, ties broken by id
// so rankings are reproducible.
func sortByCombined(candidates []*candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].scores.Combined != candidates[j].scores.Combined {
			return candidates[i].scores.Combined > candidates[j].scores.Combined
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})
}

// mergeTerms merges sorted matched-term lists without duplicates.
func mergeTerms(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range incoming {
		if !seen[t] {
			existing = append(existing, t)
			seen[t] = true
		}
	}
	sort.Strings(existing)
	return existing
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
