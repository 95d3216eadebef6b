package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
)

// StaticEmbedder generates embeddings by hashing words and character
// trigrams into a fixed number of buckets. It needs no network or model,
// is deterministic, and captures surface similarity only.
type StaticEmbedder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

// legalStopWords are frequent words that carry no signal in case summaries.
var legalStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true, "or": true,
	"to": true, "in": true, "on": true, "for": true, "by": true, "with": true,
	"is": true, "was": true, "were": true, "be": true, "that": true, "this": true,
	"it": true, "its": true, "as": true, "at": true, "from": true, "v": true,
}

// Weights for vector generation.
const (
	wordWeight  = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var wordRegex = regexp.MustCompile(`[A-Za-z']+`)

// NewStaticEmbedder creates a static embedder. dims <= 0 means StaticDimensions.
func NewStaticEmbedder(dims int) *StaticEmbedder {
	if dims <= 0 {
		dims = StaticDimensions
	}
	return &StaticEmbedder{dims: dims}
}

// Embed returns a unit vector for text. Blank text yields the zero vector.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

// EmbedBatch embeds each text in turn.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *StaticEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dims)

	var letters strings.Builder
	for _, word := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		letters.WriteString(word)
		letters.WriteByte(' ')
		if legalStopWords[word] {
			continue
		}
		vector[hashToIndex(word, e.dims)] += wordWeight
	}

	// Trigrams run across word boundaries so "sues" and "sued" share "sue".
	compact := strings.ReplaceAll(letters.String(), " ", "")
	for i := 0; i+ngramSize <= len(compact); i++ {
		vector[hashToIndex(compact[i:i+ngramSize], e.dims)] += ngramWeight
	}

	return vector
}

// hashToIndex uses FNV-64 to map a string to a bucket.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func (e *StaticEmbedder) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("embedder is closed")
	}
	return nil
}

// Dimensions returns the vector size.
func (e *StaticEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *StaticEmbedder) ModelName() string {
	return fmt.Sprintf("static-%d", e.dims)
}

// Available reports whether the embedder is open.
func (e *StaticEmbedder) Available(context.Context) bool {
	return e.checkOpen() == nil
}

// Close marks the embedder closed.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
