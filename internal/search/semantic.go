package search

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// BatchEmbedFunc embeds several texts in one call. Output order matches input.
type BatchEmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// SemanticIndex holds one unit-length vector per document.
type SemanticIndex struct {
	vectors [][]float32
	dims    int
}

// BuildSemanticIndex embeds every document with embed. Up to concurrency
// calls run at once; values below 1 mean sequential.
func BuildSemanticIndex(ctx context.Context, docs []Document, embed EmbedFunc, concurrency int) (*SemanticIndex, error) {
	if len(docs) == 0 {
		return nil, emptyCorpus()
	}
	if embed == nil {
		return nil, fmt.Errorf("%w: embed function is required", ErrNilDependency)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	vectors := make([][]float32, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, d := range docs {
		g.Go(func() error {
			vec, err := embed(gctx, d.searchText())
			if err != nil {
				return embeddingUnavailable(fmt.Sprintf("embedding document %d failed", i), err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newSemanticIndex(vectors)
}

// BuildSemanticIndexBatch embeds documents in chunks of batchSize.
func BuildSemanticIndexBatch(ctx context.Context, docs []Document, embed BatchEmbedFunc, batchSize int) (*SemanticIndex, error) {
	if len(docs) == 0 {
		return nil, emptyCorpus()
	}
	if embed == nil {
		return nil, fmt.Errorf("%w: batch embed function is required", ErrNilDependency)
	}
	if batchSize < 1 {
		batchSize = len(docs)
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.searchText())
		}

		batch, err := embed(ctx, texts)
		if err != nil {
			return nil, embeddingUnavailable(fmt.Sprintf("embedding documents %d-%d failed", start, end-1), err)
		}
		if len(batch) != len(texts) {
			return nil, embeddingUnavailable(fmt.Sprintf("embedder returned %d vectors for %d documents", len(batch), len(texts)), nil)
		}
		vectors = append(vectors, batch...)
	}

	return newSemanticIndex(vectors)
}

// newSemanticIndex validates that all vectors share a dimension and stores
// normalized copies.
func newSemanticIndex(vectors [][]float32) (*SemanticIndex, error) {
	dims := len(vectors[0])
	if dims == 0 {
		return nil, embeddingUnavailable("embedder returned an empty vector", nil)
	}

	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dims {
			return nil, embeddingUnavailable(fmt.Sprintf("document %d has dimension %d, want %d", i, len(v), dims), nil)
		}
		unit, err := normalized(v)
		if err != nil {
			return nil, embeddingUnavailable(fmt.Sprintf("document %d: %v", i, err), nil)
		}
		stored[i] = unit
	}

	return &SemanticIndex{vectors: stored, dims: dims}, nil
}

// Score returns the cosine similarity of query against every document,
// aligned with corpus order. Each value lies in [-1, 1].
func (s *SemanticIndex) Score(query []float32) ([]float64, error) {
	if len(query) != s.dims {
		return nil, embeddingUnavailable(fmt.Sprintf("query vector has dimension %d, want %d", len(query), s.dims), nil)
	}
	q, err := normalized(query)
	if err != nil {
		return nil, embeddingUnavailable("query vector: "+err.Error(), nil)
	}

	scores := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		var dot float64
		for j := range v {
			dot += float64(v[j]) * float64(q[j])
		}
		scores[i] = clamp(dot, -1, 1)
	}
	return scores, nil
}

// Len returns the number of indexed documents.
func (s *SemanticIndex) Len() int {
	return len(s.vectors)
}

// Dimensions returns the vector dimension.
func (s *SemanticIndex) Dimensions() int {
	return s.dims
}

// normalized returns a unit-length copy of v. A zero vector stays zero and
// scores 0 against everything.
func normalized(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("vector contains non-finite values")
		}
		sum += f * f
	}

	out := make([]float32, len(v))
	if sum == 0 {
		return out, nil
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
