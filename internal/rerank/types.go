// Package rerank provides cross-encoder providers and the score
// combination used to merge the ranking signals into one ordering.
package rerank

import (
	"context"
	"strings"
	"time"
)

// Cross-encoder defaults.
const (
	// DefaultTimeout is the default per-call timeout for remote scoring.
	DefaultTimeout = 30 * time.Second

	// DefaultPoolSize is the default candidate count sent for scoring.
	DefaultPoolSize = 50

	// NeutralScore is the score a disabled cross-encoder reports for
	// every pair. With a constant reranker signal the combined ordering
	// reduces to the remaining signals.
	NeutralScore = 0.5
)

// CrossEncoder scores query/document pairs jointly. Scores are in [0,1],
// index-aligned with the documents argument.
type CrossEncoder interface {
	// Score rates each document's relevance to the query.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the cross-encoder is ready to serve.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// NoOpCrossEncoder reports the neutral score for every pair. It is the
// default provider: cross-encoding is an optional refinement, not a
// pipeline requirement.
type NoOpCrossEncoder struct{}

var _ CrossEncoder = (*NoOpCrossEncoder)(nil)

// NewNoOpCrossEncoder creates the neutral cross-encoder.
func NewNoOpCrossEncoder() *NoOpCrossEncoder {
	return &NoOpCrossEncoder{}
}

// Score returns NeutralScore for every document.
func (n *NoOpCrossEncoder) Score(_ context.Context, _ string, documents []string) ([]float64, error) {
	scores := make([]float64, len(documents))
	for i := range scores {
		scores[i] = NeutralScore
	}
	return scores, nil
}

// ModelName returns the model identifier.
func (n *NoOpCrossEncoder) ModelName() string { return "noop" }

// Available always reports true.
func (n *NoOpCrossEncoder) Available(_ context.Context) bool { return true }

// Close releases resources (none).
func (n *NoOpCrossEncoder) Close() error { return nil }

// MockCrossEncoder is a deterministic in-memory cross-encoder for tests.
// Without injected behavior it scores by normalized token overlap, which
// is crude but order-stable.
type MockCrossEncoder struct {
	// ScoreFunc overrides Score when set.
	ScoreFunc func(ctx context.Context, query string, documents []string) ([]float64, error)
	// AvailableFunc overrides Available when set.
	AvailableFunc func(ctx context.Context) bool
}

var _ CrossEncoder = (*MockCrossEncoder)(nil)

// NewMockCrossEncoder creates a mock cross-encoder.
func NewMockCrossEncoder() *MockCrossEncoder {
	return &MockCrossEncoder{}
}

// Score delegates to ScoreFunc or computes token overlap.
func (m *MockCrossEncoder) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, documents)
	}

	queryTokens := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		queryTokens[tok] = true
	}

	scores := make([]float64, len(documents))
	for i, doc := range documents {
		docTokens := strings.Fields(strings.ToLower(doc))
		if len(queryTokens) == 0 || len(docTokens) == 0 {
			continue
		}
		overlap := 0
		seen := map[string]bool{}
		for _, tok := range docTokens {
			if queryTokens[tok] && !seen[tok] {
				overlap++
				seen[tok] = true
			}
		}
		scores[i] = float64(overlap) / float64(len(queryTokens))
	}
	return scores, nil
}

// ModelName returns the model identifier.
func (m *MockCrossEncoder) ModelName() string { return "mock" }

// Available delegates to AvailableFunc, defaulting to true.
func (m *MockCrossEncoder) Available(ctx context.Context) bool {
	if m.AvailableFunc != nil {
		return m.AvailableFunc(ctx)
	}
	return true
}

// Close releases resources (none).
func (m *MockCrossEncoder) Close() error { return nil }
