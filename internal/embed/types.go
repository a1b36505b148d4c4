// Package embed provides vector embedding providers for the semantic
// channel. All providers implement Embedder; remote ones degrade to
// errors the pipeline absorbs, never panics.
package embed

import (
	"context"
	"math"
	"time"
)

// Batching constants.
const (
	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize bounds batch size to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultBatchSize is the default chunk size for batch requests.
	DefaultBatchSize = 32

	// DefaultTimeout is the default per-call timeout for remote providers.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default retry attempt count.
	DefaultMaxRetries = 3
)

// StaticDimensions is the embedding dimension of the hash-based embedder.
const StaticDimensions = 256

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, index-aligned
	// with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// Cosine returns the cosine similarity of two vectors, 0 for mismatched
// lengths or zero vectors. Unit-normalized inputs make this a dot product,
// but the general form is kept for externally supplied embeddings.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
