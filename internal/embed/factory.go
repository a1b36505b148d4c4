package embed

import (
	"fmt"
	"strings"

	"github.com/equiprank/equiprank/internal/config"
	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	// ProviderHF uses a Hugging Face style inference endpoint.
	ProviderHF ProviderType = "hf"

	// ProviderOpenAI uses the OpenAI embeddings API.
	ProviderOpenAI ProviderType = "openai"

	// ProviderStatic uses hash-based embeddings (no network).
	ProviderStatic ProviderType = "static"

	// ProviderMock is the deterministic test embedder.
	ProviderMock ProviderType = "mock"
)

// String returns the provider name.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all recognized provider names.
func ValidProviders() []string {
	return []string{
		string(ProviderHF),
		string(ProviderOpenAI),
		string(ProviderStatic),
		string(ProviderMock),
	}
}

// NewEmbedder constructs the configured embedder. An unknown provider or
// a misconfigured remote provider fails construction: provider selection
// is explicit, so there is no silent fallback at this layer.
//
// When cfg.CacheSize > 0 the embedder is wrapped with an LRU cache.
func NewEmbedder(cfg config.EmbeddingsConfig) (Embedder, error) {
	var embedder Embedder
	var err error

	switch ProviderType(strings.ToLower(cfg.Provider)) {
	case ProviderHF:
		embedder, err = NewHFEmbedder(HFConfig{
			Endpoint:   cfg.Endpoint,
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout.Std(),
		})

	case ProviderOpenAI:
		embedder, err = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.Endpoint,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout.Std(),
		})

	case ProviderStatic:
		embedder = NewStaticEmbedder()

	case ProviderMock:
		embedder = NewMockEmbedder()

	default:
		return nil, rerrors.New(rerrors.ErrCodeProviderUnknown,
			fmt.Sprintf("unknown embedding provider %q (valid: %s)",
				cfg.Provider, strings.Join(ValidProviders(), ", ")), nil)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, cfg.CacheSize)
	}
	return embedder, nil
}
