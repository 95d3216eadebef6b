package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/lexdebate/internal/config"
	"github.com/Aman-CERP/lexdebate/internal/corpus"
	"github.com/Aman-CERP/lexdebate/internal/embed"
	"github.com/Aman-CERP/lexdebate/internal/metrics"
	"github.com/Aman-CERP/lexdebate/internal/search"
	"github.com/Aman-CERP/lexdebate/internal/telemetry"
)

// app is the retrieval stack shared by serve and search.
type app struct {
	cfg      *config.Config
	corpus   *corpus.Corpus
	embedder embed.Embedder
	holder   *search.Holder
	metrics  *metrics.Metrics
	history  *telemetry.Store
	recorder *telemetry.Recorder
}

// appOptions selects the optional parts of the stack.
type appOptions struct {
	metrics   bool
	telemetry bool
	// flushInterval is the recorder's flush period; 0 flushes only on close.
	flushInterval time.Duration
}

// newApp loads the corpus and builds the retriever. Telemetry failures are
// logged and leave telemetry off.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	if opts.metrics {
		a.metrics = metrics.New()
	}
	if opts.telemetry && cfg.Telemetry.Enabled {
		if err := a.openTelemetry(opts.flushInterval); err != nil {
			slog.Warn("telemetry_disabled", slog.String("error", err.Error()))
		}
	}

	factory := embedderConfig(cfg)
	if a.metrics != nil {
		factory.Observer = a.metrics
	}
	emb, err := embed.NewEmbedder(factory)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.embedder = emb

	c, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.corpus = c

	buildOpts := []search.Option{
		search.WithConfig(cfg.Search.RetrieverConfig()),
		search.WithBatchEmbed(emb.EmbedBatch, cfg.Embeddings.BatchSize),
	}
	if a.metrics != nil {
		buildOpts = append(buildOpts, search.WithRecorder(a.metrics))
	}
	if a.recorder != nil {
		buildOpts = append(buildOpts, search.WithRecorder(a.recorder))
	}

	start := time.Now()
	r, err := search.Build(ctx, c.DocumentsOrPlaceholder(), emb.Embed, buildOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build retriever: %w", err)
	}
	a.holder, _ = search.NewHolder(r)

	if a.metrics != nil {
		a.metrics.SetCorpusDocuments(r.Len())
	}
	slog.Info("retriever_ready",
		slog.String("source", c.Source),
		slog.Int("documents", r.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return a, nil
}

// embedderConfig maps the embeddings section onto the factory.
func embedderConfig(cfg *config.Config) embed.FactoryConfig {
	return embed.FactoryConfig{
		Provider:   embed.ProviderType(strings.ToLower(cfg.Embeddings.Provider)),
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		BaseURL:    cfg.Embeddings.BaseURL,
		APIKey:     cfg.Embeddings.APIKey(),
		Timeout:    cfg.Embeddings.TimeoutDuration(),
		MaxRetries: cfg.Embeddings.MaxRetries,
		CacheSize:  cfg.Embeddings.CacheSize,
	}
}

func (a *app) openTelemetry(flushInterval time.Duration) error {
	path := a.cfg.Telemetry.DBPath
	if path == "" {
		return errors.New("telemetry.db_path is empty")
	}
	store, err := telemetry.Open(path)
	if err != nil {
		return err
	}
	a.history = store
	a.recorder = telemetry.NewRecorder(store, telemetry.RecorderConfig{FlushInterval: flushInterval})
	return nil
}

// Close flushes telemetry and releases the embedder.
func (a *app) Close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			slog.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
		}
	}
	if a.history != nil {
		_ = a.history.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
}
