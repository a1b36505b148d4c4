package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedderHitsSkipInner(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedder(mock, 10)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "mop")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "mop")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), mock.Calls())
}

func TestCachedEmbedderBatchPartialHits(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedder(mock, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "mop")
	require.NoError(t, err)

	vecs, err := cached.EmbedBatch(ctx, []string{"mop", "rodo", "balde"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// Only the two misses hit the inner embedder.
	assert.Equal(t, int64(3), mock.Calls())
}

func TestCachedEmbedderEviction(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedder(mock, 1)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "mop")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "rodo")
	require.NoError(t, err)

	// "mop" was evicted by "rodo" in the size-1 cache.
	_, err = cached.Embed(ctx, "mop")
	require.NoError(t, err)
	assert.Equal(t, int64(3), mock.Calls())
}

func TestCachedEmbedderPassthrough(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedder(mock, 10)

	assert.Equal(t, mock.Dimensions(), cached.Dimensions())
	assert.Equal(t, mock.ModelName(), cached.ModelName())
	assert.True(t, cached.Available(context.Background()))
	assert.Same(t, Embedder(mock), cached.Inner())
	assert.NoError(t, cached.Close())
}
