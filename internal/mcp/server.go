package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/embed"
	"github.com/Aman-CERP/lexdebate/internal/search"
	"github.com/Aman-CERP/lexdebate/internal/telemetry"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

// Search limits for tool calls.
const (
	DefaultK = 3
	MaxK     = 20
)

// Server is the MCP server for lexdebate.
// It lets AI clients look up precedents in the loaded corpus.
type Server struct {
	mcp      *mcp.Server
	holder   *search.Holder
	gen      *debate.Generator
	embedder embed.Embedder // may be nil
	logger   *slog.Logger

	// Query telemetry (optional, set via SetRecorder)
	recorder *telemetry.Recorder

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search_precedents",
		Description: "Find legal precedents for a case description. Combines keyword and semantic search and favours cases of the same type and jurisdiction.",
	},
	{
		Name:        "generate_case",
		Description: "Pick a random case from the corpus to debate.",
	},
	{
		Name:        "corpus_status",
		Description: "Report how many cases are loaded and which embedder backs semantic search.",
	},
}

// NewServer creates a new MCP server. embedder is used only for
// capability reporting and may be nil.
func NewServer(holder *search.Holder, gen *debate.Generator, embedder embed.Embedder) (*Server, error) {
	if holder == nil {
		return nil, errors.New("retriever holder is required")
	}
	if gen == nil {
		gen = debate.NewGenerator(time.Now().UnixNano())
	}

	s := &Server{
		holder:   holder,
		gen:      gen,
		embedder: embedder,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "lexdebate",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerCaseResources()
	return s, nil
}

// SetRecorder exposes the recorder's snapshot as the query_metrics resource.
func (s *Server) SetRecorder(r *telemetry.Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.recorder == nil
	s.recorder = r

	if r != nil && first {
		s.registerQueryMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool by name. search_precedents returns markdown,
// the other tools return their structured output.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search_precedents":
		in := SearchInput{}
		in.Query, _ = args["query"].(string)
		if k, ok := args["k"].(float64); ok {
			in.K = int(k)
		}
		in.CaseType, _ = args["case_type"].(string)
		in.Jurisdiction, _ = args["jurisdiction"].(string)

		resp, err := s.search(ctx, in)
		if err != nil {
			return nil, err
		}
		return FormatPrecedents(in.Query, resp), nil
	case "generate_case":
		return s.gen.GenerateCase(s.holder.Load().Documents()), nil
	case "corpus_status":
		return s.status(ctx), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// search validates the input and runs it against the current retriever.
func (s *Server) search(ctx context.Context, in SearchInput) (*search.Response, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}
	if in.K < 0 {
		return nil, NewInvalidParamsError(fmt.Sprintf("k must be positive, got %d", in.K))
	}
	k := clampK(in.K, DefaultK, 1, MaxK)

	hints := search.Hints{}
	if in.CaseType != "" {
		hints[search.HintCaseType] = in.CaseType
	}
	if in.Jurisdiction != "" {
		hints[search.HintJurisdiction] = in.Jurisdiction
	}

	start := time.Now()
	requestID := generateRequestID()
	s.logger.Info("search started",
		slog.String("request_id", requestID),
		slog.String("query", in.Query),
		slog.Int("k", k))

	resp, err := s.holder.Search(ctx, in.Query, k, hints)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", len(resp.Results)))
	return resp, nil
}

func (s *Server) status(ctx context.Context) *CorpusStatusOutput {
	r := s.holder.Load()
	stats := r.Stats()
	out := &CorpusStatusOutput{
		Documents:    stats.Documents,
		Terms:        stats.Terms,
		AvgDocLength: stats.AvgDocLength,
		Generation:   s.holder.Generation(),
		BuiltAt:      r.BuiltAt().Format(time.RFC3339),
		Embeddings: EmbeddingInfo{
			Model:            "none",
			Dimensions:       stats.Dimensions,
			Status:           "none",
			IsFallbackActive: true,
			SemanticQuality:  "none",
		},
	}

	if s.embedder != nil {
		model := s.embedder.ModelName()
		fallback := strings.HasPrefix(model, "static")
		out.Embeddings.Model = model
		out.Embeddings.IsFallbackActive = fallback
		out.Embeddings.SemanticQuality = "high"
		if fallback {
			out.Embeddings.SemanticQuality = "low"
		}
		out.Embeddings.Status = "unavailable"
		if s.embedder.Available(ctx) {
			out.Embeddings.Status = "ready"
		}
	}
	return out
}

func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpGenerateCaseHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpCorpusStatusHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	resp, err := s.search(ctx, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	terms := search.Tokenize(input.Query)
	output := SearchOutput{
		Query:   input.Query,
		Hints:   resp.Hints,
		Results: make([]PrecedentOutput, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		output.Results = append(output.Results, ToPrecedentOutput(r, terms, resp.Hints))
	}
	return nil, output, nil
}

func (s *Server) mcpGenerateCaseHandler(_ context.Context, _ *mcp.CallToolRequest, _ GenerateCaseInput) (
	*mcp.CallToolResult,
	debate.Case,
	error,
) {
	return nil, s.gen.GenerateCase(s.holder.Load().Documents()), nil
}

func (s *Server) mcpCorpusStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ CorpusStatusInput) (
	*mcp.CallToolResult,
	*CorpusStatusOutput,
	error,
) {
	return nil, s.status(ctx), nil
}

// Serve runs the server over the given transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
