package embed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// mockEmbedder is a test double that counts calls and can fail on demand.
type mockEmbedder struct {
	embedCalls atomic.Int64
	batchCalls atomic.Int64
	failFirst  atomic.Int64
	err        error
	delay      time.Duration
	dimensions int
	closed     atomic.Bool
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dimensions: dims, err: errors.New("mock failure")}
}

func (m *mockEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dimensions)
	for i := range vec {
		vec[i] = float32(len(text)+i) * 0.001
	}
	return vec
}

func (m *mockEmbedder) fail() bool {
	return m.failFirst.Add(-1) >= 0
}

func (m *mockEmbedder) wait(ctx context.Context) error {
	if m.delay == 0 {
		return nil
	}
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.fail() {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	if m.fail() {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int                { return m.dimensions }
func (m *mockEmbedder) ModelName() string              { return "mock-model" }
func (m *mockEmbedder) Available(context.Context) bool { return !m.closed.Load() }
func (m *mockEmbedder) Close() error {
	m.closed.Store(true)
	return nil
}

// recordingObserver captures Observer calls.
type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
	hits     int
	misses   int
}

func (o *recordingObserver) ObserveEmbedding(_, _, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) ObserveEmbeddingCache(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
