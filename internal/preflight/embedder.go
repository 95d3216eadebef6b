package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Aman-CERP/lexdebate/internal/corpus"
	"github.com/Aman-CERP/lexdebate/internal/embed"
)

// embedProbeTimeout bounds the probe embedding.
const embedProbeTimeout = 15 * time.Second

// CheckCorpus loads the corpus at path; an empty path is the built-in sample.
func (c *Checker) CheckCorpus(path string) CheckResult {
	result := CheckResult{Name: "corpus", Required: true}

	cp, err := corpus.Load(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}
	result.Details = fmt.Sprintf("source: %s (%s)", cp.Source, cp.Format)

	switch {
	case cp.Len() == 0:
		result.Status = StatusWarn
		result.Message = "no cases; searches will return the placeholder case"
	case cp.Skipped > 0:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d cases, %d records skipped", cp.Len(), cp.Skipped)
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%d cases", cp.Len())
	}
	return result
}

// CheckEmbedder embeds a probe text and checks the vector length. Building
// the retriever fails without working embeddings, so a failure is critical.
// The static embedder passes with a warning.
func (c *Checker) CheckEmbedder(ctx context.Context, e embed.Embedder) CheckResult {
	result := CheckResult{Name: "embedder", Required: true}
	if e == nil {
		result.Status = StatusSkip
		result.Message = "not configured"
		return result
	}
	result.Details = fmt.Sprintf("model: %s, dimensions: %d", e.ModelName(), e.Dimensions())

	ctx, cancel := context.WithTimeout(ctx, embedProbeTimeout)
	defer cancel()

	start := time.Now()
	vec, err := e.Embed(ctx, "preflight probe: breach of contract")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("embedding failed: %v", err)
		return result
	}
	if len(vec) != e.Dimensions() {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("got %d dimensions, configured %d", len(vec), e.Dimensions())
		return result
	}

	if strings.HasPrefix(e.ModelName(), "static") {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s (hash embeddings, low semantic quality)", e.ModelName())
		return result
	}
	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s answered in %s", e.ModelName(), time.Since(start).Round(time.Millisecond))
	return result
}
