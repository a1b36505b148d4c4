package embed

import (
	"context"
	"hash/fnv"
	"sync/atomic"
)

// MockEmbedder is a deterministic in-memory embedder for tests. Without
// injected behavior it derives a stable pseudo-vector from the FNV hash
// of the input, so equal texts always embed equally.
type MockEmbedder struct {
	// EmbedFunc overrides Embed when set.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	// AvailableFunc overrides Available when set.
	AvailableFunc func(ctx context.Context) bool
	// Dims is the vector dimension (defaults to 8).
	Dims int

	calls atomic.Int64
}

var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with the default dimension.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dims: 8}
}

// Calls returns how many Embed calls were made, batch items included.
func (m *MockEmbedder) Calls() int64 {
	return m.calls.Load()
}

// Embed generates a deterministic pseudo-vector, or delegates to EmbedFunc.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}

	dims := m.Dims
	if dims <= 0 {
		dims = 8
	}
	h := fnv.New64()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)%1000) / 1000
	}
	return normalizeVector(vec), nil
}

// EmbedBatch embeds each text through Embed.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the configured dimension.
func (m *MockEmbedder) Dimensions() int {
	if m.Dims <= 0 {
		return 8
	}
	return m.Dims
}

// ModelName returns the model identifier.
func (m *MockEmbedder) ModelName() string {
	return "mock"
}

// Available delegates to AvailableFunc, defaulting to true.
func (m *MockEmbedder) Available(ctx context.Context) bool {
	if m.AvailableFunc != nil {
		return m.AvailableFunc(ctx)
	}
	return true
}

// Close releases resources (none for the mock).
func (m *MockEmbedder) Close() error {
	return nil
}
