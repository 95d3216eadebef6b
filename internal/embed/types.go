// Package embed provides the embedding capability the retriever consumes:
// a text goes in, a fixed-length vector comes out.
package embed

import (
	"context"
	"math"
	"time"
)

// Embedding defaults.
const (
	// DefaultBatchSize is the number of texts sent per remote request.
	DefaultBatchSize = 64

	// DefaultTimeout bounds a single embedding call.
	DefaultTimeout = 30 * time.Second

	// StaticDimensions is the vector size of the static embedder.
	StaticDimensions = 256
)

// Embedder produces vectors for text.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size.
	Dimensions() int

	// ModelName identifies the model, used in cache keys and metrics.
	ModelName() string

	// Available reports whether the embedder can serve requests.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Observer receives embedding call outcomes. The metrics package implements it.
type Observer interface {
	ObserveEmbedding(provider, model, status string, elapsed time.Duration)
	ObserveEmbeddingCache(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveEmbedding(string, string, string, time.Duration) {}
func (nopObserver) ObserveEmbeddingCache(bool) {}

// normalizeVector returns a unit-length copy of v, or v itself when it is zero.
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
