// Package api serves the debate web front end over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/metrics"
	"github.com/Aman-CERP/lexdebate/internal/search"
	"github.com/Aman-CERP/lexdebate/internal/session"
)

// Config tunes request handling.
type Config struct {
	// DefaultK is used when a request omits k (default: 3).
	DefaultK int
	// MaxK rejects larger k values (default: 50).
	MaxK int
	// MaxBodyBytes caps request bodies (default: 1 MiB).
	MaxBodyBytes int64
	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultK <= 0 {
		c.DefaultK = 3
	}
	if c.MaxK < c.DefaultK {
		c.MaxK = max(50, c.DefaultK)
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server holds the HTTP dependencies.
type Server struct {
	holder   *search.Holder
	sessions *session.Service
	engine   *debate.Engine
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config
	started  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts /metrics and the HTTP metrics middleware.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the access logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig overrides request limits.
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// NewServer wires the HTTP layer.
func NewServer(holder *search.Holder, sessions *session.Service, engine *debate.Engine, opts ...Option) (*Server, error) {
	if holder == nil || sessions == nil || engine == nil {
		return nil, fmt.Errorf("%w: api server needs a retriever holder, session service and debate engine", search.ErrNilDependency)
	}
	s := &Server{
		holder:   holder,
		sessions: sessions,
		engine:   engine,
		logger:   slog.Default(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.applyDefaults()
	return s, nil
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(s.logger), CORS(), RequestSizeLimit(s.cfg.MaxBodyBytes))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/generate_case", s.handleGenerateCase)
	r.POST("/generate_case", s.handleGenerateCase)
	r.POST("/search", s.handleSearch)
	r.POST("/debate", s.handleDebate)
	r.POST("/judge_decision", s.handleJudgeDecision)
	r.POST("/summarize_verdict", s.handleSummarizeVerdict)
	r.GET("/sessions/:id", s.handleGetSession)

	r.NoRoute(func(c *gin.Context) {
		SendError(c, http.StatusNotFound, "ERR_404_ROUTE_NOT_FOUND", "No route for "+c.Request.Method+" "+c.Request.URL.Path)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, if not nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready chan<- net.Addr) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http_listening", slog.String("addr", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	slog.Info("http_shutting_down", slog.Duration("timeout", s.cfg.ShutdownTimeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
