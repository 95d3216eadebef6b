package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

// GuardedEmbedder bounds every call to the inner embedder with a timeout,
// retries transient failures and stops calling a provider that keeps failing.
// Failures come back as ERR_502_EMBEDDING_UNAVAILABLE so the retriever
// surfaces them instead of ranking without a semantic signal.
type GuardedEmbedder struct {
	inner    Embedder
	provider string
	timeout  time.Duration
	retry    lexerr.RetryConfig
	breaker  *lexerr.CircuitBreaker
	observer Observer
}

// GuardOption configures a GuardedEmbedder.
type GuardOption func(*GuardedEmbedder)

// WithTimeout sets the per-call timeout (default: DefaultTimeout).
func WithTimeout(d time.Duration) GuardOption {
	return func(g *GuardedEmbedder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRetry sets the retry policy.
func WithRetry(cfg lexerr.RetryConfig) GuardOption {
	return func(g *GuardedEmbedder) {
		g.retry = cfg
	}
}

// WithBreaker sets the circuit breaker.
func WithBreaker(cb *lexerr.CircuitBreaker) GuardOption {
	return func(g *GuardedEmbedder) {
		if cb != nil {
			g.breaker = cb
		}
	}
}

// WithObserver reports call outcomes to o.
func WithObserver(o Observer) GuardOption {
	return func(g *GuardedEmbedder) {
		if o != nil {
			g.observer = o
		}
	}
}

// NewGuardedEmbedder wraps inner. provider labels metrics and logs.
func NewGuardedEmbedder(inner Embedder, provider string, opts ...GuardOption) *GuardedEmbedder {
	g := &GuardedEmbedder{
		inner:    inner,
		provider: provider,
		timeout:  DefaultTimeout,
		retry:    lexerr.DefaultRetryConfig(),
		breaker:  lexerr.NewCircuitBreaker("embed-" + provider),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Embed calls the inner embedder under the guard.
func (g *GuardedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return guardedCall(ctx, g, "embed", func(ctx context.Context) ([]float32, error) {
		return g.inner.Embed(ctx, text)
	})
}

// EmbedBatch calls the inner embedder under the guard.
func (g *GuardedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return guardedCall(ctx, g, "embed_batch", func(ctx context.Context) ([][]float32, error) {
		return g.inner.EmbedBatch(ctx, texts)
	})
}

func guardedCall[T any](ctx context.Context, g *GuardedEmbedder, op string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := lexerr.RetryWithResult(ctx, g.retry, func() (T, error) {
		return lexerr.Guard(g.breaker, func() (T, error) {
			callCtx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()

			out, err := fn(callCtx)
			if err != nil {
				return out, classify(callCtx, err)
			}
			return out, nil
		})
	})

	status := "success"
	if err != nil {
		status = "error"
		slog.Warn("embedding_failed",
			slog.String("provider", g.provider),
			slog.String("op", op),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		err = lexerr.New(lexerr.ErrCodeEmbeddingUnavailable,
			fmt.Sprintf("%s embedding unavailable", g.provider), err).
			WithDetail("provider", g.provider).
			WithDetail("model", g.inner.ModelName())
	}
	g.observer.ObserveEmbedding(g.provider, g.inner.ModelName(), status, time.Since(start))
	return result, err
}

// classify marks deadline and transport errors retryable. Provider errors
// already carrying a code keep it.
func classify(callCtx context.Context, err error) error {
	if _, ok := lexerr.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return lexerr.New(lexerr.ErrCodeNetworkTimeout, "embedding call timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return lexerr.New(lexerr.ErrCodeNetworkUnavailable, "embedding call failed", err)
}

// Dimensions passes through to the inner embedder.
func (g *GuardedEmbedder) Dimensions() int {
	return g.inner.Dimensions()
}

// ModelName passes through to the inner embedder.
func (g *GuardedEmbedder) ModelName() string {
	return g.inner.ModelName()
}

// Available reports false while the breaker is open.
func (g *GuardedEmbedder) Available(ctx context.Context) bool {
	return g.breaker.State() != lexerr.StateOpen && g.inner.Available(ctx)
}

// Close closes the inner embedder.
func (g *GuardedEmbedder) Close() error {
	return g.inner.Close()
}
