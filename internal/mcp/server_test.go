package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/lexdebate/internal/corpus"
	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/embed"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

func newTestServer(t *testing.T) (*Server, *embed.StaticEmbedder) {
	t.Helper()
	emb := embed.NewStaticEmbedder(64)
	r, err := search.Build(context.Background(), corpus.Sample().Documents, emb.Embed)
	require.NoError(t, err)
	holder, err := search.NewHolder(r)
	require.NoError(t, err)

	srv, err := NewServer(holder, debate.NewGenerator(3), emb)
	require.NoError(t, err)
	return srv, emb
}

func TestNewServer_RequiresHolder(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	srv, _ := newTestServer(t)

	names := make([]string, 0, 3)
	for _, tool := range srv.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{"search_precedents", "generate_case", "corpus_status"}, names)
	assert.NotNil(t, srv.MCPServer())
}

func TestCallTool_SearchPrecedents(t *testing.T) {
	// Given: the sample corpus
	srv, _ := newTestServer(t)

	// When: searching for the parrot case
	out, err := srv.CallTool(context.Background(), "search_precedents", map[string]any{
		"query": "parrot defamation UK",
		"k":     float64(2),
	})

	// Then: markdown comes back with the parrot case first
	require.NoError(t, err)
	md, ok := out.(string)
	require.True(t, ok)
	assert.Contains(t, md, "Found 2 precedents")
	assert.Contains(t, md, "### 1. Polly v. Hargreaves")
}

func TestCallTool_SearchPrecedents_EmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "search_precedents", map[string]any{"query": "   "})

	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestCallTool_UnknownTool(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "appeal", nil)

	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}

func TestCallTool_GenerateCase(t *testing.T) {
	srv, _ := newTestServer(t)

	out, err := srv.CallTool(context.Background(), "generate_case", nil)

	require.NoError(t, err)
	c, ok := out.(debate.Case)
	require.True(t, ok)
	assert.NotEmpty(t, c.ID)
	assert.NotEmpty(t, c.Title)
}

func TestMCPSearchHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	_, out, err := srv.mcpSearchHandler(context.Background(), nil, SearchInput{
		Query:        "parrot slander",
		CaseType:     "defamation",
		Jurisdiction: "UK",
	})

	require.NoError(t, err)
	require.Len(t, out.Results, DefaultK)
	assert.Equal(t, "c001", out.Results[0].ID)
	assert.Equal(t, "defamation", out.Hints[search.HintCaseType])
	assert.Contains(t, out.Results[0].MatchReason, "same case type")
}

func TestCorpusStatus(t *testing.T) {
	tests := []struct {
		name         string
		closeEmbed   bool
		wantStatus   string
		wantFallback bool
	}{
		{"static embedder ready", false, "ready", true},
		{"closed embedder", true, "unavailable", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, emb := newTestServer(t)
			if tt.closeEmbed {
				require.NoError(t, emb.Close())
			}

			_, out, err := srv.mcpCorpusStatusHandler(context.Background(), nil, CorpusStatusInput{})

			require.NoError(t, err)
			assert.Equal(t, 12, out.Documents)
			assert.Equal(t, uint64(1), out.Generation)
			assert.Equal(t, 64, out.Embeddings.Dimensions)
			assert.Equal(t, tt.wantStatus, out.Embeddings.Status)
			assert.Equal(t, tt.wantFallback, out.Embeddings.IsFallbackActive)
			assert.Equal(t, "low", out.Embeddings.SemanticQuality)
		})
	}
}

func TestCorpusStatus_NoEmbedder(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.embedder = nil

	out := srv.status(context.Background())

	assert.Equal(t, "none", out.Embeddings.Status)
	assert.Equal(t, "none", out.Embeddings.Model)
}

func TestServe_UnknownTransport(t *testing.T) {
	srv, _ := newTestServer(t)

	err := srv.Serve(context.Background(), "carrier-pigeon")

	assert.ErrorContains(t, err, "unknown transport")
}

func TestCallTool_SearchPrecedents_K(t *testing.T) {
	tests := []struct {
		name    string
		k       any
		wantErr bool
		want    string
	}{
		{"missing uses default", nil, false, "Found 3 precedents"},
		{"zero uses default", float64(0), false, "Found 3 precedents"},
		{"negative rejected", float64(-4), true, ""},
		{"above max clamped", float64(500), false, "Found 12 precedents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			args := map[string]any{"query": "parrot defamation"}
			if tt.k != nil {
				args["k"] = tt.k
			}

			out, err := srv.CallTool(context.Background(), "search_precedents", args)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}
