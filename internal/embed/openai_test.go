package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newEmbeddingServer(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e, err := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "text-embedding-3-small",
		Dimensions: 3,
	})
	require.NoError(t, err)
	return e
}

func TestOpenAIEmbedder_EmbedBatch_OrdersByIndex(t *testing.T) {
	e := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, version.UserAgent(), r.Header.Get("User-Agent"))

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"parrot", "ghost"}, req.Input)
		assert.Equal(t, 3, req.Dimensions)

		// Returned out of order on purpose
		resp := embeddingResponse{Object: "list", Model: req.Model, Data: []embeddingItem{
			{Object: "embedding", Embedding: []float32{0, 1, 0}, Index: 1},
			{Object: "embedding", Embedding: []float32{1, 0, 0}, Index: 0},
		}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	out, err := e.EmbedBatch(context.Background(), []string{"parrot", "ghost"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, out)
	assert.Equal(t, "text-embedding-3-small", e.ModelName())
	assert.Equal(t, 3, e.Dimensions())
}

func TestOpenAIEmbedder_WrongDimension(t *testing.T) {
	e := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list", Data: []embeddingItem{{Embedding: []float32{1, 0}, Index: 0}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	_, err := e.Embed(context.Background(), "parrot")

	assert.Equal(t, lexerr.ErrCodeDimensionMismatch, lexerr.GetCode(err))
}

func TestOpenAIEmbedder_APIErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		code      string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, lexerr.ErrCodeProviderRateLimit, true},
		{"server error", http.StatusBadGateway, lexerr.ErrCodeNetworkUnavailable, true},
		{"unauthorized", http.StatusUnauthorized, lexerr.ErrCodeConfigInvalid, false},
		{"bad request", http.StatusBadRequest, lexerr.ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			})

			_, err := e.Embed(context.Background(), "parrot")

			require.Error(t, err)
			assert.Equal(t, tt.code, lexerr.GetCode(err))
			assert.Equal(t, tt.retryable, lexerr.IsRetryable(err))
		})
	}
}

func TestNewOpenAIEmbedder_Validation(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIConfig{Model: "m", Dimensions: 3})
	assert.Equal(t, lexerr.ErrCodeConfigInvalid, lexerr.GetCode(err))

	_, err = NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", Dimensions: 3})
	assert.Error(t, err)

	_, err = NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", Model: "m"})
	assert.Error(t, err)
}

func TestExtractDetail(t *testing.T) {
	assert.Equal(t, "quota exceeded", extractDetail([]byte(`{"detail":"quota exceeded"}`)))
	assert.Empty(t, extractDetail([]byte(`not json`)))
}
