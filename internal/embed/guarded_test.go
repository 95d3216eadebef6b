package embed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

func fastGuard(mock *mockEmbedder, obs Observer, opts ...GuardOption) *GuardedEmbedder {
	base := []GuardOption{
		WithRetry(lexerr.RetryConfig{
			MaxRetries:   2,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   1,
			RetryIf:      lexerr.IsRetryable,
		}),
		WithObserver(obs),
	}
	return NewGuardedEmbedder(mock, "mock", append(base, opts...)...)
}

func TestGuardedEmbedder_RetriesTransientFailure(t *testing.T) {
	// Given: an inner embedder that fails once
	mock := newMockEmbedder(4)
	mock.failFirst.Store(1)
	obs := &recordingObserver{}
	g := fastGuard(mock, obs)

	// When: embedding
	vec, err := g.Embed(context.Background(), "parrot")

	// Then: the retry succeeds
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, int64(2), mock.embedCalls.Load())
	assert.Equal(t, []string{"success"}, obs.statuses)
}

func TestGuardedEmbedder_ExhaustedRetriesSurfaceUnavailable(t *testing.T) {
	mock := newMockEmbedder(4)
	mock.failFirst.Store(10)
	obs := &recordingObserver{}
	g := fastGuard(mock, obs)

	_, err := g.Embed(context.Background(), "parrot")

	require.Error(t, err)
	assert.Equal(t, lexerr.ErrCodeEmbeddingUnavailable, lexerr.GetCode(err))
	assert.ErrorIs(t, err, mock.err)
	assert.Equal(t, int64(3), mock.embedCalls.Load())
	assert.Equal(t, []string{"error"}, obs.statuses)
}

func TestGuardedEmbedder_Timeout(t *testing.T) {
	// Given: an inner embedder slower than the timeout
	mock := newMockEmbedder(4)
	mock.delay = time.Second
	g := fastGuard(mock, nil, WithTimeout(5*time.Millisecond))

	start := time.Now()
	_, err := g.Embed(context.Background(), "slow")

	// Then: each attempt is cut short and the error says why
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.ErrorIs(t, err, lexerr.New(lexerr.ErrCodeNetworkTimeout, "", nil))
}

func TestGuardedEmbedder_BreakerOpens(t *testing.T) {
	mock := newMockEmbedder(4)
	mock.failFirst.Store(100)
	breaker := lexerr.NewCircuitBreaker("test", lexerr.WithMaxFailures(2), lexerr.WithResetTimeout(time.Hour))
	g := fastGuard(mock, nil, WithBreaker(breaker), WithRetry(lexerr.RetryConfig{MaxRetries: 0}))

	for i := 0; i < 2; i++ {
		_, err := g.Embed(context.Background(), "x")
		require.Error(t, err)
	}
	calls := mock.embedCalls.Load()

	_, err := g.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, lexerr.ErrCircuitOpen)
	assert.Equal(t, calls, mock.embedCalls.Load())
	assert.False(t, g.Available(context.Background()))
}

func TestGuardedEmbedder_EmptyBatch(t *testing.T) {
	g := fastGuard(newMockEmbedder(4), nil)
	out, err := g.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGuardedEmbedder_Passthrough(t *testing.T) {
	mock := newMockEmbedder(4)
	g := fastGuard(mock, nil)

	out, err := g.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 4, g.Dimensions())
	assert.Equal(t, "mock-model", g.ModelName())
	require.NoError(t, g.Close())
	assert.True(t, mock.closed.Load())
}
