package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

const (
	caseURIPrefix   = "case://"
	queryMetricsURI = "lexdebate://query_metrics"
)

// registerCaseResources exposes every corpus case as case://{id}.
// The template resolves against the retriever current at read time, so
// reloads need no re-registration.
func (s *Server) registerCaseResources() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "case",
			URITemplate: caseURIPrefix + "{id}",
			Description: "A case from the precedent corpus, by id",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.handleReadCase(ctx, req.Params.URI)
		},
	)
}

// handleReadCase returns the case named by uri as JSON.
func (s *Server) handleReadCase(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(uri, caseURIPrefix)
	if !ok || id == "" {
		return nil, NewInvalidParamsError("invalid case uri: " + uri)
	}

	doc, found := findCase(s.holder.Load().Documents(), id)
	if !found {
		return nil, NewCaseNotFoundError(id)
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(content)},
		},
	}, nil
}

func findCase(docs []search.Document, id string) (search.Document, bool) {
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return search.Document{}, false
}

// QueryMetricsSummary provides overview statistics.
type QueryMetricsSummary struct {
	TotalSearches  int64   `json:"total_searches"`
	FailedSearches int64   `json:"failed_searches"`
	TimePeriod     string  `json:"time_period"`
	ZeroResultPct  float64 `json:"zero_result_pct"`
}

// QueryMetricsOutput is the JSON structure for the query_metrics resource.
type QueryMetricsOutput struct {
	Summary             QueryMetricsSummary `json:"summary"`
	HintCounts          map[string]int64    `json:"hint_counts"`
	TopTerms            []QueryTermCount    `json:"top_terms"`
	LatencyDistribution map[string]int64    `json:"latency_distribution"`
}

// QueryTermCount represents a term and its frequency.
type QueryTermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

func (s *Server) registerQueryMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "query_metrics",
			URI:         queryMetricsURI,
			Description: "Search telemetry since the server started",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.handleReadQueryMetrics(ctx)
		},
	)
}

func (s *Server) handleReadQueryMetrics(context.Context) (*mcp.ReadResourceResult, error) {
	s.mu.RLock()
	recorder := s.recorder
	s.mu.RUnlock()

	if recorder == nil {
		return nil, NewInvalidParamsError("query metrics not available")
	}

	snap := recorder.Snapshot()
	output := QueryMetricsOutput{
		Summary: QueryMetricsSummary{
			TotalSearches:  snap.TotalSearches,
			FailedSearches: snap.FailedSearches,
			TimePeriod:     "since " + snap.Since.Format("2006-01-02 15:04:05"),
			ZeroResultPct:  snap.ZeroResultPercentage(),
		},
		HintCounts:          snap.HintCounts,
		TopTerms:            make([]QueryTermCount, 0, len(snap.TopTerms)),
		LatencyDistribution: make(map[string]int64, len(snap.Latencies)),
	}
	for _, tc := range snap.TopTerms {
		output.TopTerms = append(output.TopTerms, QueryTermCount{Term: tc.Term, Count: tc.Count})
	}
	for bucket, n := range snap.Latencies {
		output.LatencyDistribution[string(bucket)] = n
	}

	content, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: queryMetricsURI, MIMEType: "application/json", Text: string(content)},
		},
	}, nil
}
