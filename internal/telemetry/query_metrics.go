// Package telemetry records search history locally. Nothing is reported
// to a remote service.
package telemetry

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// SearchRecord is one row of search history.
type SearchRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Query     string       `json:"query"`
	K         int          `json:"k"`
	Results   int          `json:"results"`
	TopID     string       `json:"top_id,omitempty"`
	TopScore  float64      `json:"top_score"`
	LatencyMS float64      `json:"latency_ms"`
	Hints     search.Hints `json:"hints"`
	Error     string       `json:"error,omitempty"`
}

// QueryCount is a query and how often it was searched.
type QueryCount struct {
	Query        string  `json:"query"`
	Count        int64   `json:"count"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// TermCount is a query term and its frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Batch is what one flush writes.
type Batch struct {
	Date      string
	Searches  []SearchRecord
	Terms     map[string]int64
	Latencies map[LatencyBucket]int64
}

func (b Batch) empty() bool {
	return len(b.Searches) == 0 && len(b.Terms) == 0 && len(b.Latencies) == 0
}

// Sink persists flushed batches. *Store satisfies it.
type Sink interface {
	SaveBatch(ctx context.Context, b Batch) error
}

// ExtractTerms returns the query's tokens of three or more letters.
func ExtractTerms(query string) []string {
	var terms []string
	for _, tok := range search.Tokenize(query) {
		if len(tok) >= 3 {
			terms = append(terms, tok)
		}
	}
	return terms
}

// Snapshot is the in-memory view since the recorder started.
type Snapshot struct {
	TotalSearches   int64                   `json:"total_searches"`
	FailedSearches  int64                   `json:"failed_searches"`
	ZeroResultCount int64                   `json:"zero_result_count"`
	HintCounts      map[string]int64        `json:"hint_counts"`
	TopTerms        []TermCount             `json:"top_terms"`
	Latencies       map[LatencyBucket]int64 `json:"latency_distribution"`
	Since           time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of searches that matched nothing.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalSearches) * 100
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	TopTermsCapacity int           // default: 100
	FlushInterval    time.Duration // default: 10s; 0 disables the flush loop
	MaxPending       int           // flush early past this many rows (default: 256)
}

// DefaultRecorderConfig returns the defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		TopTermsCapacity: 100,
		FlushInterval:    10 * time.Second,
		MaxPending:       256,
	}
}

// Recorder aggregates searches in memory and flushes them to a Sink in
// batches. It implements search.Recorder and is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	totals      Snapshot
	topTerms    *lru.Cache[string, int64]
	pending     []SearchRecord
	pendTerms   map[string]int64
	pendLatency map[LatencyBucket]int64

	sink   Sink
	config RecorderConfig
	kick   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
	closed bool
}

var _ search.Recorder = (*Recorder)(nil)

// NewRecorder starts a recorder. A nil sink keeps everything in memory.
func NewRecorder(sink Sink, cfg RecorderConfig) *Recorder {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 256
	}
	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	r := &Recorder{
		totals: Snapshot{
			HintCounts: make(map[string]int64),
			Latencies:  make(map[LatencyBucket]int64),
			Since:      time.Now(),
		},
		topTerms:    topTerms,
		pendTerms:   make(map[string]int64),
		pendLatency: make(map[LatencyBucket]int64),
		sink:        sink,
		config:      cfg,
		kick:        make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}

	if sink != nil && cfg.FlushInterval > 0 {
		go r.flushLoop()
	} else {
		close(r.done)
	}
	return r
}

func (r *Recorder) flushLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-r.kick:
		case <-r.stopCh:
			return
		}
		if err := r.Flush(context.Background()); err != nil {
			slog.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
		}
	}
}

// RecordSearch captures one search. It never blocks on the database.
func (r *Recorder) RecordSearch(_ context.Context, ev search.SearchEvent) {
	rec := SearchRecord{
		Timestamp: time.Now(),
		Query:     ev.Query,
		K:         ev.K,
		Results:   ev.Results,
		TopID:     ev.TopID,
		TopScore:  ev.TopScore,
		LatencyMS: float64(ev.Latency.Microseconds()) / 1000,
		Hints:     ev.Hints,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	bucket := LatencyToBucket(ev.Latency)
	terms := ExtractTerms(ev.Query)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	r.totals.TotalSearches++
	r.totals.Latencies[bucket]++
	switch {
	case ev.Err != nil:
		r.totals.FailedSearches++
	case ev.Results == 0:
		r.totals.ZeroResultCount++
	}
	for key, value := range ev.Hints {
		r.totals.HintCounts[key+"="+value]++
	}
	for _, term := range terms {
		count, _ := r.topTerms.Get(term)
		r.topTerms.Add(term, count+1)
		r.pendTerms[term]++
	}

	var full bool
	if r.sink != nil {
		r.pending = append(r.pending, rec)
		r.pendLatency[bucket]++
		full = len(r.pending) >= r.config.MaxPending
	}
	r.mu.Unlock()

	if full {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns a copy of the in-memory aggregates.
func (r *Recorder) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.totals
	snap.HintCounts = make(map[string]int64, len(r.totals.HintCounts))
	for k, v := range r.totals.HintCounts {
		snap.HintCounts[k] = v
	}
	snap.Latencies = make(map[LatencyBucket]int64, len(r.totals.Latencies))
	for k, v := range r.totals.Latencies {
		snap.Latencies[k] = v
	}

	snap.TopTerms = make([]TermCount, 0, r.topTerms.Len())
	for _, key := range r.topTerms.Keys() {
		if count, ok := r.topTerms.Peek(key); ok {
			snap.TopTerms = append(snap.TopTerms, TermCount{Term: key, Count: count})
		}
	}
	slices.SortFunc(snap.TopTerms, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	return &snap
}

// Flush writes pending rows to the sink. Rows are kept for the next
// attempt when the write fails.
func (r *Recorder) Flush(ctx context.Context) error {
	if r.sink == nil {
		return nil
	}

	r.mu.Lock()
	batch := Batch{
		Date:      today(time.Now()),
		Searches:  r.pending,
		Terms:     r.pendTerms,
		Latencies: r.pendLatency,
	}
	r.pending = nil
	r.pendTerms = make(map[string]int64)
	r.pendLatency = make(map[LatencyBucket]int64)
	r.mu.Unlock()

	if err := r.sink.SaveBatch(ctx, batch); err != nil {
		r.requeue(batch)
		return err
	}
	if len(batch.Searches) > 0 {
		slog.Debug("telemetry_flushed", slog.Int("searches", len(batch.Searches)))
	}
	return nil
}

func (r *Recorder) requeue(b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(b.Searches, r.pending...)
	for k, v := range b.Terms {
		r.pendTerms[k] += v
	}
	for k, v := range b.Latencies {
		r.pendLatency[k] += v
	}
}

// Close stops the flush loop and writes what is pending.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	select {
	case <-r.done:
	default:
		close(r.stopCh)
		<-r.done
	}
	return r.Flush(context.Background())
}
