package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// SearchEvent describes one completed or failed search.
type SearchEvent struct {
	Query    string
	K        int
	Hints    Hints
	Results  int
	TopID    string
	TopScore float64
	Latency  time.Duration
	Err      error
}

// Recorder observes searches. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordSearch(ctx context.Context, ev SearchEvent)
}

// Retriever ranks a fixed corpus. All fields are set by Build and never
// change afterwards, so Search is safe for concurrent use without locks.
type Retriever struct {
	docs     []Document
	lexical  *LexicalIndex
	semantic *SemanticIndex
	hints    *HintExtractor
	embed    EmbedFunc
	cfg      Config
	builtAt  time.Time

	// Kept so a rebuild over a new corpus uses the same setup.
	opts        []Option
	batchEmbed  BatchEmbedFunc
	batchSize   int
	concurrency int
	recorders   []Recorder
	logger      *slog.Logger
}

// Option configures a Retriever at build time.
type Option func(*Retriever)

// WithConfig sets ranking weights, bonuses and BM25 parameters.
func WithConfig(cfg Config) Option {
	return func(r *Retriever) {
		r.cfg = cfg
	}
}

// WithWeights overrides only the fusion weights.
func WithWeights(w Weights) Option {
	return func(r *Retriever) {
		r.cfg.Weights = w
	}
}

// WithHintRules replaces the default hint rule table.
func WithHintRules(rules []HintRule) Option {
	return func(r *Retriever) {
		r.hints = NewHintExtractor(rules)
	}
}

// WithBatchEmbed embeds documents in batches during Build instead of one
// call per document. Queries still go through the single-text function.
func WithBatchEmbed(fn BatchEmbedFunc, batchSize int) Option {
	return func(r *Retriever) {
		r.batchEmbed = fn
		r.batchSize = batchSize
	}
}

// WithBuildConcurrency bounds parallel embedding calls during Build (default: 4).
func WithBuildConcurrency(n int) Option {
	return func(r *Retriever) {
		r.concurrency = n
	}
}

// WithRecorder adds an observer that sees every search.
func WithRecorder(rec Recorder) Option {
	return func(r *Retriever) {
		if rec != nil {
			r.recorders = append(r.recorders, rec)
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// Build indexes docs and returns a ready Retriever. embed is used for
// document vectors (unless WithBatchEmbed is set) and for query vectors.
func Build(ctx context.Context, docs []Document, embed EmbedFunc, opts ...Option) (*Retriever, error) {
	if len(docs) == 0 {
		return nil, emptyCorpus()
	}
	if embed == nil {
		return nil, fmt.Errorf("%w: embed function is required", ErrNilDependency)
	}

	r := &Retriever{
		docs:        cloneDocuments(docs),
		embed:       embed,
		cfg:         DefaultConfig(),
		hints:       defaultExtractor,
		concurrency: 4,
		logger:      slog.Default(),
		opts:        opts,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.cfg.Weights.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lex, err := BuildLexicalIndex(r.docs, r.cfg.Lexical)
		r.lexical = lex
		return err
	})
	g.Go(func() error {
		var (
			sem *SemanticIndex
			err error
		)
		if r.batchEmbed != nil {
			sem, err = BuildSemanticIndexBatch(gctx, r.docs, r.batchEmbed, r.batchSize)
		} else {
			sem, err = BuildSemanticIndex(gctx, r.docs, r.embed, r.concurrency)
		}
		r.semantic = sem
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.Error("retriever_build_failed",
			slog.Int("documents", len(docs)),
			slog.String("error", err.Error()))
		return nil, err
	}
	r.builtAt = time.Now()

	r.logger.Info("retriever_built",
		slog.Int("documents", len(r.docs)),
		slog.Int("terms", r.lexical.Terms()),
		slog.Int("dimensions", r.semantic.Dimensions()),
		slog.Duration("elapsed", r.builtAt.Sub(start)))

	return r, nil
}

// Rebuild builds a new Retriever over docs with the same embedding
// function and options. The receiver is not modified.
func (r *Retriever) Rebuild(ctx context.Context, docs []Document) (*Retriever, error) {
	return Build(ctx, docs, r.embed, r.opts...)
}

// Search ranks the corpus for query and returns the top k documents along
// with the merged hints. Explicit hints override hints found in the query.
func (r *Retriever) Search(ctx context.Context, query string, k int, explicit Hints) (*Response, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if k <= 0 {
		err := invalidArgument(fmt.Sprintf("k must be positive, got %d", k))
		r.record(ctx, SearchEvent{Query: query, K: k, Latency: time.Since(start), Err: err})
		return nil, err
	}

	var (
		lexical  []float64
		semantic []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexical = r.lexical.Score(query)
		return nil
	})
	g.Go(func() error {
		qvec, err := r.embed(gctx, query)
		if err != nil {
			if errors.Is(err, ErrEmbeddingUnavailable) {
				return err
			}
			return embeddingUnavailable("query embedding failed", err)
		}
		semantic, err = r.semantic.Score(qvec)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("search_failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		r.record(ctx, SearchEvent{Query: query, K: k, Latency: time.Since(start), Err: err})
		return nil, err
	}

	resp, err := r.rank(query, lexical, semantic, k, explicit)
	r.finish(ctx, query, k, resp, err, start)
	return resp, err
}

// SearchVector is Search for callers that already hold the query vector.
func (r *Retriever) SearchVector(ctx context.Context, query string, qvec []float32, k int, explicit Hints) (*Response, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if k <= 0 {
		err := invalidArgument(fmt.Sprintf("k must be positive, got %d", k))
		r.record(ctx, SearchEvent{Query: query, K: k, Latency: time.Since(start), Err: err})
		return nil, err
	}
	if qvec == nil {
		err := embeddingUnavailable("query vector is missing", nil)
		r.record(ctx, SearchEvent{Query: query, K: k, Latency: time.Since(start), Err: err})
		return nil, err
	}

	semantic, err := r.semantic.Score(qvec)
	if err != nil {
		r.record(ctx, SearchEvent{Query: query, K: k, Latency: time.Since(start), Err: err})
		return nil, err
	}

	resp, err := r.rank(query, r.lexical.Score(query), semantic, k, explicit)
	r.finish(ctx, query, k, resp, err, start)
	return resp, err
}

func (r *Retriever) rank(query string, lexical, semantic []float64, k int, explicit Hints) (*Response, error) {
	hints := MergeHints(r.hints.Extract(query), explicit)
	top, err := TopK(Fuse(lexical, semantic, r.docs, hints, r.cfg), k)
	if err != nil {
		return nil, err
	}
	return &Response{Results: top, Hints: hints}, nil
}

func (r *Retriever) finish(ctx context.Context, query string, k int, resp *Response, err error, start time.Time) {
	ev := SearchEvent{Query: query, K: k, Latency: time.Since(start), Err: err}
	if resp != nil {
		ev.Hints = resp.Hints
		ev.Results = len(resp.Results)
		if len(resp.Results) > 0 {
			ev.TopID = resp.Results[0].Document.ID
			ev.TopScore = resp.Results[0].Score
		}
	}

	r.logger.Debug("search_completed",
		slog.String("query", query),
		slog.Int("k", k),
		slog.Int("results", ev.Results),
		slog.String("top_id", ev.TopID),
		slog.Duration("elapsed", ev.Latency))
	r.record(ctx, ev)
}

func (r *Retriever) record(ctx context.Context, ev SearchEvent) {
	for _, rec := range r.recorders {
		rec.RecordSearch(ctx, ev)
	}
}

// Len returns the corpus size.
func (r *Retriever) Len() int {
	return len(r.docs)
}

// Documents returns a copy of the corpus in index order.
func (r *Retriever) Documents() []Document {
	return cloneDocuments(r.docs)
}

// Config returns the ranking configuration.
func (r *Retriever) Config() Config {
	return r.cfg
}

// BuiltAt returns when the indexes finished building.
func (r *Retriever) BuiltAt() time.Time {
	return r.builtAt
}

// Stats reports index sizes.
func (r *Retriever) Stats() Stats {
	return Stats{
		Documents:    len(r.docs),
		Terms:        r.lexical.Terms(),
		AvgDocLength: r.lexical.AvgDocLength(),
		Dimensions:   r.semantic.Dimensions(),
	}
}

func cloneDocuments(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		d.Principles = slices.Clone(d.Principles)
		d.Tags = slices.Clone(d.Tags)
		out[i] = d
	}
	return out
}
