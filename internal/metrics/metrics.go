// Package metrics exposes Prometheus collectors for searches, embedding
// calls, debate calls, the corpus and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/embed"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

const namespace = "lexdebate"

// Search outcomes.
const (
	SearchOK        = "ok"
	SearchNoResults = "no_results"
	SearchError     = "error"
)

// Metrics owns a registry and every lexdebate collector.
type Metrics struct {
	reg *prometheus.Registry

	searchTotal     *prometheus.CounterVec
	searchDuration  prometheus.Histogram
	searchResults   prometheus.Histogram
	embedTotal      *prometheus.CounterVec
	embedDuration   *prometheus.HistogramVec
	embedCache      *prometheus.CounterVec
	callTotal       *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	corpusDocuments prometheus.Gauge
	corpusReloads   *prometheus.CounterVec
	httpTotal       *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var (
	_ search.Recorder     = (*Metrics)(nil)
	_ embed.Observer      = (*Metrics)(nil)
	_ debate.CallObserver = (*Metrics)(nil)
)

// New registers all collectors on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Total number of precedent searches",
		}, []string{"status"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency in seconds, including the query embedding",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 3, 5, 10, 25, 50},
		}),
		embedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		}, []string{"provider", "model", "status"}),
		embedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "model"}),
		embedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		}, []string{"result"}),
		callTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debate_calls_total",
			Help:      "Dispatched debate calls by outcome",
		}, []string{"name", "status"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "debate_call_duration_seconds",
			Help:      "Dispatched debate call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),
		corpusDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_documents",
			Help:      "Documents in the published retriever",
		}),
		corpusReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_reloads_total",
			Help:      "Corpus reload attempts by outcome",
		}, []string{"status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searchTotal, m.searchDuration, m.searchResults,
		m.embedTotal, m.embedDuration, m.embedCache,
		m.callTotal, m.callDuration,
		m.corpusDocuments, m.corpusReloads,
		m.httpTotal, m.httpDuration,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// RecordSearch implements search.Recorder.
func (m *Metrics) RecordSearch(_ context.Context, ev search.SearchEvent) {
	status := SearchOK
	switch {
	case ev.Err != nil:
		status = SearchError
	case ev.Results == 0:
		status = SearchNoResults
	}
	m.searchTotal.WithLabelValues(status).Inc()
	m.searchDuration.Observe(ev.Latency.Seconds())
	if ev.Err == nil {
		m.searchResults.Observe(float64(ev.Results))
	}
}

// ObserveEmbedding implements embed.Observer.
func (m *Metrics) ObserveEmbedding(provider, model, status string, elapsed time.Duration) {
	m.embedTotal.WithLabelValues(provider, model, status).Inc()
	m.embedDuration.WithLabelValues(provider, model).Observe(elapsed.Seconds())
}

// ObserveEmbeddingCache implements embed.Observer.
func (m *Metrics) ObserveEmbeddingCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.embedCache.WithLabelValues(result).Inc()
}

// ObserveCall implements debate.CallObserver.
func (m *Metrics) ObserveCall(name, status string, elapsed time.Duration) {
	m.callTotal.WithLabelValues(name, status).Inc()
	m.callDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// SetCorpusDocuments records the size of the published corpus.
func (m *Metrics) SetCorpusDocuments(n int) {
	m.corpusDocuments.Set(float64(n))
}

// ObserveCorpusReload counts a reload attempt.
func (m *Metrics) ObserveCorpusReload(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.corpusReloads.WithLabelValues(status).Inc()
}
