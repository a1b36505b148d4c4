// Package engine orchestrates the ranking pipeline: query rewriting,
// lexical retrieval, semantic scoring, cross-encoding, score combination,
// and diversification, with a TTL result cache in front and a degraded
// lexical-only path when providers misbehave.
package engine

import (
	"context"
	"log/slog"

	"github.com/equiprank/equiprank/internal/abbrev"
	"github.com/equiprank/equiprank/internal/cache"
	"github.com/equiprank/equiprank/internal/config"
	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/embed"
	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/index"
	"github.com/equiprank/equiprank/internal/related"
	"github.com/equiprank/equiprank/internal/rerank"
	"github.com/equiprank/equiprank/internal/telemetry"
)

// Source selects exactly one index construction path: a fresh build
// from the corpus, or a restore from a persisted snapshot. The corpus
// documents are carried either way; only the indexing work differs.
type Source struct {
	docs []*corpus.Document
	snap *index.Snapshot
}

// FromDocuments builds the index fresh from the corpus.
func FromDocuments(docs []*corpus.Document) Source {
	return Source{docs: docs}
}

// FromSnapshot restores the index from a snapshot instead of re-indexing.
// The documents are still required for titles, categories, and metrics.
func FromSnapshot(docs []*corpus.Document, snap *index.Snapshot) Source {
	return Source{docs: docs, snap: snap}
}

// Engine is the ranking pipeline. Read-only after New and safe for
// concurrent searches.
type Engine struct {
	cfg *config.Config

	ix   *index.Index
	docs []*corpus.Document
	byID map[string]*corpus.Document

	embedder     embed.Embedder
	crossEncoder rerank.CrossEncoder
	weights      rerank.Weights

	abbrevs *abbrev.Registry
	results *cache.Cache[*Response]
	graph   *related.Graph
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithEmbedder injects the embedding provider, overriding the configured
// factory construction.
func WithEmbedder(e embed.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// WithCrossEncoder injects the cross-encoder provider.
func WithCrossEncoder(ce rerank.CrossEncoder) Option {
	return func(eng *Engine) { eng.crossEncoder = ce }
}

// WithAbbreviations injects the abbreviation registry used for query
// rewriting. Without it, rewriting degrades to normalization.
func WithAbbreviations(r *abbrev.Registry) Option {
	return func(eng *Engine) { eng.abbrevs = r }
}

// WithMetrics injects the telemetry collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(eng *Engine) { eng.metrics = m }
}

// WithLogger injects the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// New constructs the engine. Provider misconfiguration, an invalid
// corpus, and a snapshot that does not match the corpus are all fatal
// here; query-time failures degrade instead.
func New(ctx context.Context, cfg *config.Config, src Source, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if len(src.docs) == 0 {
		return nil, rerrors.CorpusError("engine requires a non-empty corpus", nil)
	}
	corpus.Prepare(src.docs)

	e := &Engine{
		cfg:  cfg,
		docs: src.docs,
		byID: make(map[string]*corpus.Document, len(src.docs)),
		weights: rerank.Weights{
			Lexical:  cfg.Search.LexicalWeight,
			Semantic: cfg.Search.SemanticWeight,
			Reranker: cfg.Search.RerankerWeight,
			Domain:   cfg.Search.DomainWeight,
		},
		logger: slog.Default(),
	}
	for _, d := range src.docs {
		e.byID[d.ID] = d
	}

	for _, opt := range opts {
		opt(e)
	}

	// Exactly one index construction path.
	if src.snap != nil {
		ix, err := index.Restore(src.snap)
		if err != nil {
			return nil, err
		}
		if ix.DocCount() != len(src.docs) {
			return nil, rerrors.SnapshotError("snapshot does not match the corpus", nil)
		}
		e.ix = ix
	} else {
		e.ix = index.Build(src.docs, index.Config{
			K1: cfg.Search.BM25K1,
			B:  cfg.Search.BM25B,
		})
	}

	if e.embedder == nil {
		embedder, err := embed.NewEmbedder(cfg.Embeddings)
		if err != nil {
			return nil, err
		}
		e.embedder = embedder
	}
	if e.crossEncoder == nil {
		ce, err := rerank.NewCrossEncoder(cfg.Reranker)
		if err != nil {
			return nil, err
		}
		e.crossEncoder = ce
	}
	if e.metrics == nil {
		e.metrics = telemetry.New()
	}
	if cfg.Cache.Size > 0 {
		e.results = cache.New[*Response](cfg.Cache.Size, cfg.Cache.TTL.Std())
	}

	e.embedCorpus(ctx)

	graph, err := related.Build(ctx, e.docs, e.embedder)
	if err != nil {
		e.logger.WarnContext(ctx, "related graph unavailable, suggestions disabled",
			slog.String("error", err.Error()))
	} else {
		e.graph = graph
	}

	e.logger.InfoContext(ctx, "engine ready",
		slog.Int("documents", e.ix.DocCount()),
		slog.Int("terms", e.ix.TermCount()),
		slog.Bool("from_snapshot", src.snap != nil),
		slog.String("embedder", e.embedder.ModelName()),
		slog.String("reranker", e.crossEncoder.ModelName()))
	return e, nil
}

// embedCorpus fills missing document embeddings. A provider failure here
// degrades the semantic channel rather than failing construction: the
// lexical pipeline still serves.
func (e *Engine) embedCorpus(ctx context.Context) {
	var pending []*corpus.Document
	var texts []string
	for _, d := range e.docs {
		if len(d.Embedding) == 0 {
			pending = append(pending, d)
			texts = append(texts, d.SemanticBody())
		}
	}
	if len(pending) == 0 {
		return
	}

	vecs, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		e.logger.WarnContext(ctx, "corpus embedding failed, semantic channel degraded",
			slog.Int("documents", len(pending)),
			slog.String("error", err.Error()))
		return
	}
	for i, d := range pending {
		d.Embedding = vecs[i]
	}
}

// Snapshot exposes the index snapshot for persistence.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.ix.Snapshot()
}

// Stats returns engine diagnostics.
func (e *Engine) Stats() Stats {
	s := Stats{
		Documents:     e.ix.DocCount(),
		Terms:         e.ix.TermCount(),
		EmbedderModel: e.embedder.ModelName(),
		RerankerModel: e.crossEncoder.ModelName(),
		Metrics:       e.metrics.Snapshot(),
	}
	if e.results != nil {
		s.CachedQueries = e.results.Len()
	}
	return s
}

// Close releases provider resources.
func (e *Engine) Close() error {
	err := e.embedder.Close()
	if cerr := e.crossEncoder.Close(); err == nil {
		err = cerr
	}
	return err
}
