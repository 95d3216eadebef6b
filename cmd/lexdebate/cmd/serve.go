package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/api"
	"github.com/Aman-CERP/lexdebate/internal/corpus"
	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/mcp"
	"github.com/Aman-CERP/lexdebate/internal/session"
)

// telemetryFlushInterval is how often a running server writes search history.
const telemetryFlushInterval = 10 * time.Second

type serveOptions struct {
	addr       string
	corpusPath string
	useMCP     bool
	noWatch    bool
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the debate HTTP API or the MCP server",
		Long: `Start the debate HTTP API. The corpus is loaded and indexed once at start;
when corpus.watch is set the file is watched and the index rebuilt on change.

With --mcp the precedent search is served to MCP clients over stdio instead,
and logs go to a file because stdout carries the protocol.`,
		Example: `  lexdebate serve
  lexdebate serve --addr :9000 --corpus ./cases.jsonl
  lexdebate serve --mcp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&opts.corpusPath, "corpus", "", "Corpus file, JSON or JSONL (overrides corpus.path)")
	cmd.Flags().BoolVar(&opts.useMCP, "mcp", false, "Serve MCP over stdio instead of HTTP")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Do not reload the corpus when it changes")

	return cmd
}

func runServe(parent context.Context, global *globalOptions, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.corpusPath != "" {
		cfg.Corpus.Path = opts.corpusPath
	}

	cleanup, err := setupLogging(global, cfg, opts.useMCP)
	defer cleanup()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, appOptions{metrics: true, telemetry: true, flushInterval: telemetryFlushInterval})
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Corpus.Watch && cfg.Corpus.Path != "" && !opts.noWatch {
		if err := startWatcher(ctx, a); err != nil {
			slog.Warn("corpus_watch_disabled", slog.String("error", err.Error()))
		}
	}

	seed := cfg.Debate.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := debate.NewGenerator(seed)

	if opts.useMCP {
		srv, err := mcp.NewServer(a.holder, gen, a.embedder)
		if err != nil {
			return err
		}
		srv.SetRecorder(a.recorder)
		return ignoreCanceled(srv.Serve(ctx, "stdio"))
	}

	dispatch := debate.NewDispatcher(
		debate.WithCallTimeout(cfg.Debate.CallTimeoutDuration()),
		debate.WithWorkers(cfg.Debate.Workers),
		debate.WithCallObserver(a.metrics),
	)
	engine, err := debate.NewEngine(a.holder, gen, dispatch, debate.DefaultRounds, cfg.Search.DefaultK)
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.Server.MaxSessions, cfg.Server.SessionTTLDuration())
	if path := cfg.Server.SnapshotPath; path != "" {
		if _, err := session.LoadSnapshot(store, path); err != nil {
			slog.Warn("session_restore_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		defer func() {
			if _, err := session.SaveSnapshot(store, path); err != nil {
				slog.Error("session_save_failed", slog.String("path", path), slog.String("error", err.Error()))
			}
		}()
	}
	sessions, err := session.NewService(store, engine)
	if err != nil {
		return err
	}

	gin.SetMode(strings.ToLower(cfg.Server.Mode))
	srv, err := api.NewServer(a.holder, sessions, engine,
		api.WithMetrics(a.metrics),
		api.WithConfig(api.Config{DefaultK: cfg.Search.DefaultK, MaxK: cfg.Search.MaxK}),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr, nil)
}

// startWatcher rebuilds the retriever whenever the corpus file changes.
func startWatcher(ctx context.Context, a *app) error {
	w, err := corpus.NewWatcher(a.cfg.Corpus.Path, a.holder,
		corpus.WithDebounce(a.cfg.Corpus.DebounceDuration()),
		corpus.WithReloadFunc(func(c *corpus.Corpus, err error) {
			a.metrics.ObserveCorpusReload(err)
			if err == nil {
				a.metrics.SetCorpusDocuments(len(c.DocumentsOrPlaceholder()))
			}
		}),
	)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("corpus_watch_stopped", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
