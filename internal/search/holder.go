package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Holder publishes the current Retriever to concurrent readers. A rebuild
// constructs a complete new Retriever and swaps the pointer; in-flight
// searches keep using the instance they loaded.
type Holder struct {
	current    atomic.Pointer[Retriever]
	generation atomic.Uint64

	// rebuildMu serializes rebuilds. Readers never take it.
	rebuildMu sync.Mutex
}

// NewHolder publishes r as the first generation.
func NewHolder(r *Retriever) (*Holder, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: retriever is required", ErrNilDependency)
	}
	h := &Holder{}
	h.current.Store(r)
	h.generation.Store(1)
	return h, nil
}

// Load returns the current Retriever.
func (h *Holder) Load() *Retriever {
	return h.current.Load()
}

// Generation counts successful publishes, starting at 1.
func (h *Holder) Generation() uint64 {
	return h.generation.Load()
}

// Swap publishes r and returns the previous Retriever. Nil is ignored.
func (h *Holder) Swap(r *Retriever) *Retriever {
	if r == nil {
		return h.Load()
	}
	old := h.current.Swap(r)
	h.generation.Add(1)
	return old
}

// Rebuild builds a Retriever over docs with the current one's setup and
// publishes it. On failure the current Retriever stays in place.
func (h *Holder) Rebuild(ctx context.Context, docs []Document) (*Retriever, error) {
	h.rebuildMu.Lock()
	defer h.rebuildMu.Unlock()

	old := h.Load()
	next, err := old.Rebuild(ctx, docs)
	if err != nil {
		old.logger.Warn("retriever_rebuild_failed",
			slog.Int("documents", len(docs)),
			slog.String("error", err.Error()))
		return nil, err
	}

	h.Swap(next)
	next.logger.Info("retriever_swapped",
		slog.Uint64("generation", h.Generation()),
		slog.Int("documents", next.Len()))
	return next, nil
}

// Search runs a search against the current Retriever.
func (h *Holder) Search(ctx context.Context, query string, k int, hints Hints) (*Response, error) {
	return h.Load().Search(ctx, query, k, hints)
}
