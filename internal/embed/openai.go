package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	// APIKey authenticates the client. Required.
	APIKey string
	// BaseURL overrides the API endpoint for compatible servers.
	BaseURL string
	// Model is the embedding model (defaults to DefaultOpenAIModel).
	Model string
	// Dimensions requests reduced-dimension vectors when > 0.
	Dimensions int
	// BatchSize chunks batch requests.
	BatchSize int
	// Timeout is the per-request budget.
	Timeout time.Duration
}

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API
// or any API-compatible server.
type OpenAIEmbedder struct {
	client *openai.Client
	cfg    OpenAIConfig

	mu     sync.RWMutex
	closed bool
	dims   int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI embedder. A missing API key is a
// construction error.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, rerrors.ProviderConstructionError("openai embedder requires an api key", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed generates the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, chunked by BatchSize.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		var chunk [][]float32
		err := CallWithRetry(ctx, DefaultRetryConfig(), func() error {
			var callErr error
			chunk, callErr = e.call(ctx, texts[start:end])
			return callErr
		})
		if err != nil {
			return nil, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

// call performs one embeddings request.
func (e *OpenAIEmbedder) call(ctx context.Context, inputs []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req := openai.EmbeddingRequest{
		Input:          inputs,
		Model:          openai.EmbeddingModel(e.cfg.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.cfg.Dimensions > 0 {
		req.Dimensions = e.cfg.Dimensions
	}

	resp, err := e.client.CreateEmbeddings(callCtx, req)
	if err != nil {
		return nil, classifyOpenAIError(err, e.cfg.Timeout)
	}
	if len(resp.Data) != len(inputs) {
		return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
			fmt.Sprintf("openai returned %d embeddings for %d inputs", len(resp.Data), len(inputs)), nil)
	}

	vecs := make([][]float32, len(inputs))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vecs) {
			return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
				fmt.Sprintf("openai embedding index %d out of range", item.Index), nil)
		}
		vecs[item.Index] = normalizeVector(item.Embedding)
	}

	e.mu.Lock()
	if e.dims == 0 && len(vecs) > 0 {
		e.dims = len(vecs[0])
	}
	e.mu.Unlock()

	return vecs, nil
}

// classifyOpenAIError maps client errors onto the structured error codes
// the fallback logic keys on.
func classifyOpenAIError(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return rerrors.New(rerrors.ErrCodeProviderTimeout,
			fmt.Sprintf("openai embedding call exceeded %s", timeout), err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != 429 {
			return rerrors.New(rerrors.ErrCodeProviderBadResponse,
				fmt.Sprintf("openai rejected request: %v", apiErr), err)
		}
	}
	return rerrors.ProviderCallError(fmt.Sprintf("openai embedding call: %v", err), err)
}

// Dimensions returns the embedding dimension (0 until detected).
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.cfg.Model
}

// Available probes the API with a tiny request.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	_, err := e.call(ctx, []string{"ping"})
	return err == nil
}

// Close releases resources.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
