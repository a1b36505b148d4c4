package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// HFConfig configures the Hugging Face style inference embedder.
type HFConfig struct {
	// Endpoint is the inference URL. Required.
	Endpoint string
	// Model is the model identifier, informational only for dedicated
	// endpoints that bake the model into the URL.
	Model string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Dimensions is the expected vector dimension (0 = detect on first call).
	Dimensions int
	// BatchSize chunks batch requests.
	BatchSize int
	// Timeout is the per-request budget.
	Timeout time.Duration
}

// HFEmbedder calls a Hugging Face style feature-extraction endpoint.
// The endpoint may return one vector per input, or per-token vectors
// that are mean-pooled here.
type HFEmbedder struct {
	client    *http.Client
	transport *http.Transport
	cfg       HFConfig

	mu     sync.RWMutex
	closed bool
	dims   int
}

var _ Embedder = (*HFEmbedder)(nil)

// hfRequest is the feature-extraction request body.
type hfRequest struct {
	Inputs  []string  `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// NewHFEmbedder creates a Hugging Face style embedder. A missing endpoint
// is a construction error: the provider was explicitly selected, so there
// is no silent fallback.
func NewHFEmbedder(cfg HFConfig) (*HFEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, rerrors.ProviderConstructionError("hf embedder requires an endpoint", nil)
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

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	// No client-level timeout: per-request contexts carry the budget so
	// callers can tighten it under the pipeline deadline.
	return &HFEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		cfg:       cfg,
		dims:      cfg.Dimensions,
	}, nil
}

// Embed generates the embedding for a single text.
func (e *HFEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, chunked by BatchSize.
func (e *HFEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

// call performs one inference request and decodes the vectors.
func (e *HFEmbedder) call(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:  inputs,
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, rerrors.New(rerrors.ErrCodeProviderTimeout,
				fmt.Sprintf("hf embedding call exceeded %s", e.cfg.Timeout), err)
		}
		return nil, rerrors.ProviderCallError(fmt.Sprintf("hf embedding call: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rerrors.ProviderCallError(fmt.Sprintf("read hf response: %v", err), err)
	}
	if resp.StatusCode != http.StatusOK {
		code := rerrors.ErrCodeProviderUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			code = rerrors.ErrCodeProviderBadResponse
		}
		return nil, rerrors.New(code,
			fmt.Sprintf("hf endpoint returned %d: %s", resp.StatusCode, truncate(string(data), 200)), nil)
	}

	vecs, err := decodeVectors(data, len(inputs))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.dims == 0 && len(vecs) > 0 {
		e.dims = len(vecs[0])
	}
	dims := e.dims
	e.mu.Unlock()

	for i, v := range vecs {
		if dims != 0 && len(v) != dims {
			return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
				fmt.Sprintf("vector %d has %d dimensions, want %d", i, len(v), dims), nil)
		}
		vecs[i] = normalizeVector(v)
	}
	return vecs, nil
}

// decodeVectors handles the two response shapes: one vector per input,
// or per-token vectors per input (mean-pooled).
func decodeVectors(data []byte, want int) ([][]float32, error) {
	var flat [][]float32
	if err := json.Unmarshal(data, &flat); err == nil && len(flat) == want {
		return flat, nil
	}

	var perToken [][][]float32
	if err := json.Unmarshal(data, &perToken); err == nil && len(perToken) == want {
		pooled := make([][]float32, len(perToken))
		for i, tokens := range perToken {
			if len(tokens) == 0 {
				return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
					fmt.Sprintf("input %d has no token vectors", i), nil)
			}
			pooled[i] = meanPool(tokens)
		}
		return pooled, nil
	}

	return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
		fmt.Sprintf("unrecognized embedding response shape: %s", truncate(string(data), 200)), nil)
}

// meanPool averages per-token vectors into one.
func meanPool(tokens [][]float32) []float32 {
	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		for i := range out {
			if i < len(tok) {
				out[i] += tok[i]
			}
		}
	}
	n := float32(len(tokens))
	for i := range out {
		out[i] /= n
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Dimensions returns the embedding dimension (0 until detected).
func (e *HFEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier.
func (e *HFEmbedder) ModelName() string {
	if e.cfg.Model != "" {
		return e.cfg.Model
	}
	return "hf"
}

// Available probes the endpoint with a tiny request.
func (e *HFEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	_, err := e.call(ctx, []string{"ping"})
	return err == nil
}

// Close releases pooled connections.
func (e *HFEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
