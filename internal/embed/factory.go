package embed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

// ProviderType names an embedding backend.
type ProviderType string

const (
	// ProviderStatic uses hash-based embeddings (default, offline).
	ProviderStatic ProviderType = "static"

	// ProviderOpenAI uses an OpenAI-compatible embeddings API.
	ProviderOpenAI ProviderType = "openai"
)

// ParseProvider maps a config string to a ProviderType.
func ParseProvider(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ProviderStatic):
		return ProviderStatic, nil
	case string(ProviderOpenAI):
		return ProviderOpenAI, nil
	default:
		return "", lexerr.ConfigError(fmt.Sprintf("unknown embedding provider %q", s), nil).
			WithSuggestion("Use \"static\" or \"openai\"")
	}
}

// FactoryConfig selects and tunes an embedder.
type FactoryConfig struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	CacheSize  int
	Observer   Observer
}

// NewEmbedder builds the configured embedder. Remote providers are wrapped
// with a timeout, retry and circuit breaker; every provider gets an LRU cache
// unless CacheSize is negative.
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	var embedder Embedder

	switch cfg.Provider {
	case ProviderStatic, "":
		embedder = NewStaticEmbedder(cfg.Dimensions)

	case ProviderOpenAI:
		remote, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}

		retry := lexerr.DefaultRetryConfig()
		if cfg.MaxRetries >= 0 {
			retry.MaxRetries = cfg.MaxRetries
		}
		embedder = NewGuardedEmbedder(remote, string(ProviderOpenAI),
			WithTimeout(cfg.Timeout),
			WithRetry(retry),
			WithObserver(cfg.Observer))

	default:
		return nil, lexerr.ConfigError(fmt.Sprintf("unknown embedding provider %q", cfg.Provider), nil)
	}

	slog.Info("embedder_ready",
		slog.String("provider", string(cfg.Provider)),
		slog.String("model", embedder.ModelName()),
		slog.Int("dimensions", embedder.Dimensions()))

	if cfg.CacheSize < 0 {
		return embedder, nil
	}
	return NewCachedEmbedder(embedder, cfg.CacheSize, cfg.Observer), nil
}
