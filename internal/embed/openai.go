package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

// OpenAIConfig holds settings for an OpenAI-compatible embeddings API.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
}

// NewOpenAIEmbedder creates a remote embedder. Dimensions must be known up
// front so the semantic index can validate every vector.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, lexerr.ConfigError("openai embedder requires an API key", nil).
			WithSuggestion("Set OPENAI_API_KEY or embeddings.api_key_env in the config")
	}
	if cfg.Model == "" {
		return nil, lexerr.ConfigError("openai embedder requires a model name", nil)
	}
	if cfg.Dimensions <= 0 {
		return nil, lexerr.ConfigError("openai embedder requires embeddings.dimensions > 0", nil)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Transport: userAgent{next: http.DefaultTransport}}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
	}, nil
}

// Embed embeds one text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request. Vectors are returned in input
// order regardless of the order the API lists them in.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
		Dimensions:     e.dimensions,
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, lexerr.New(lexerr.ErrCodeEmbeddingUnavailable,
			fmt.Sprintf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts)), nil)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) != e.dimensions {
			return nil, lexerr.New(lexerr.ErrCodeDimensionMismatch,
				fmt.Sprintf("model returned dimension %d, configured %d", len(d.Embedding), e.dimensions), nil)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// parseAPIError maps API failures to error codes: 429 and 5xx are
// retryable, other statuses are not.
func parseAPIError(err error) error {
	status := 0
	detail := ""

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		detail = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		detail = extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
	default:
		return lexerr.New(lexerr.ErrCodeNetworkUnavailable, "embedding request failed", err)
	}

	msg := fmt.Sprintf("embedding API error %d: %s", status, detail)
	switch {
	case status == http.StatusTooManyRequests:
		return lexerr.New(lexerr.ErrCodeProviderRateLimit, msg, err)
	case status >= 500:
		return lexerr.New(lexerr.ErrCodeNetworkUnavailable, msg, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return lexerr.New(lexerr.ErrCodeConfigInvalid, msg, err).
			WithSuggestion("Check the API key for the embeddings provider")
	default:
		return lexerr.New(lexerr.ErrCodeInvalidInput, msg, err)
	}
}

// extractDetail reads a "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}

// Dimensions returns the configured vector size.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return string(e.model)
}

// Available checks the API by listing models.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}

// Close is a no-op; the HTTP client has no resources to release.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

// userAgent tags outgoing requests with the lexdebate version.
type userAgent struct {
	next http.RoundTripper
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", version.UserAgent())
	return u.next.RoundTrip(req)
}
