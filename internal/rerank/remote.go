package rerank

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

// RemoteConfig configures the remote cross-encoder client.
type RemoteConfig struct {
	// Endpoint is the reranker service URL. Required.
	Endpoint string
	// Model is the model identifier sent with each request.
	Model string
	// Timeout is the per-request budget.
	Timeout time.Duration
}

// RemoteCrossEncoder scores pairs through an HTTP reranker service
// exposing a /rerank endpoint.
type RemoteCrossEncoder struct {
	client    *http.Client
	transport *http.Transport
	cfg       RemoteConfig

	mu     sync.RWMutex
	closed bool
}

var _ CrossEncoder = (*RemoteCrossEncoder)(nil)

// scoreRequest is the JSON request to the /rerank endpoint.
type scoreRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
}

// scoreResponse is the JSON response from the /rerank endpoint.
type scoreResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// NewRemoteCrossEncoder creates a remote cross-encoder client. A missing
// endpoint is a construction error.
func NewRemoteCrossEncoder(cfg RemoteConfig) (*RemoteCrossEncoder, error) {
	if cfg.Endpoint == "" {
		return nil, rerrors.ProviderConstructionError("remote cross-encoder requires an endpoint", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	return &RemoteCrossEncoder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		cfg:       cfg,
	}, nil
}

// Score rates each document against the query through the service.
func (r *RemoteCrossEncoder) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, fmt.Errorf("cross-encoder is closed")
	}
	r.mu.RUnlock()

	if len(documents) == 0 {
		return []float64{}, nil
	}

	body, err := json.Marshal(scoreRequest{
		Query:     query,
		Documents: documents,
		Model:     r.cfg.Model,
	})
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, r.cfg.Endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, rerrors.New(rerrors.ErrCodeProviderTimeout,
				fmt.Sprintf("rerank call exceeded %s", r.cfg.Timeout), err)
		}
		return nil, rerrors.ProviderCallError(fmt.Sprintf("rerank call: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, rerrors.New(rerrors.ErrCodeProviderUnavailable,
			fmt.Sprintf("reranker returned %d: %s", resp.StatusCode, string(data)), nil)
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
			fmt.Sprintf("decode rerank response: %v", err), err)
	}

	// The service may reorder; map scores back by index. Unscored
	// documents keep the neutral score rather than zeroing out.
	scores := make([]float64, len(documents))
	for i := range scores {
		scores[i] = NeutralScore
	}
	for _, item := range result.Results {
		if item.Index < 0 || item.Index >= len(scores) {
			return nil, rerrors.New(rerrors.ErrCodeProviderBadResponse,
				fmt.Sprintf("rerank index %d out of range", item.Index), nil)
		}
		scores[item.Index] = clamp01(item.Score)
	}
	return scores, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ModelName returns the model identifier.
func (r *RemoteCrossEncoder) ModelName() string {
	if r.cfg.Model != "" {
		return r.cfg.Model
	}
	return "remote"
}

// Available probes the service health endpoint.
func (r *RemoteCrossEncoder) Available(ctx context.Context) bool {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return false
	}
	r.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, r.cfg.Endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Close releases pooled connections.
func (r *RemoteCrossEncoder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.transport.CloseIdleConnections()
	return nil
}
