package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_CacheHit(t *testing.T) {
	// Given: a cached embedder over a counting mock
	mock := newMockEmbedder(8)
	obs := &recordingObserver{}
	cached := NewCachedEmbedder(mock, 10, obs)
	ctx := context.Background()

	// When: the same text is embedded twice
	first, err := cached.Embed(ctx, "parrot defamation")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "parrot defamation")
	require.NoError(t, err)

	// Then: the inner embedder is called once
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), mock.embedCalls.Load())
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	mock := newMockEmbedder(4)
	mock.failFirst.Store(1)
	cached := NewCachedEmbedder(mock, 10, nil)

	_, err := cached.Embed(context.Background(), "x")
	require.Error(t, err)

	_, err = cached.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), mock.embedCalls.Load())
}

func TestCachedEmbedder_EvictsLeastRecentlyUsed(t *testing.T) {
	mock := newMockEmbedder(4)
	cached := NewCachedEmbedder(mock, 2, nil)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c", "a"} {
		_, err := cached.Embed(ctx, text)
		require.NoError(t, err)
	}

	// "a" was evicted by "c" and re-embedded
	assert.Equal(t, int64(4), mock.embedCalls.Load())
	assert.Equal(t, 2, cached.Len())
}

func TestCachedEmbedder_BatchUsesCache(t *testing.T) {
	mock := newMockEmbedder(4)
	cached := NewCachedEmbedder(mock, 10, nil)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "b")
	require.NoError(t, err)

	out, err := cached.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, mock.vector("a"), out[0])
	assert.Equal(t, mock.vector("b"), out[1])
	assert.Equal(t, int64(1), mock.batchCalls.Load())

	// All cached now
	_, err = cached.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mock.batchCalls.Load())
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	mock := newMockEmbedder(16)
	cached := NewCachedEmbedder(mock, 0, nil)

	assert.Equal(t, 16, cached.Dimensions())
	assert.Equal(t, "mock-model", cached.ModelName())
	assert.Same(t, mock, cached.Inner())
	require.NoError(t, cached.Close())
	assert.False(t, cached.Available(context.Background()))
}
