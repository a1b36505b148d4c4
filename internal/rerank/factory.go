package rerank

import (
	"fmt"
	"strings"

	"github.com/equiprank/equiprank/internal/config"
	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// ProviderType identifies a cross-encoder provider.
type ProviderType string

const (
	// ProviderRemote uses an HTTP reranker service.
	ProviderRemote ProviderType = "remote"

	// ProviderNoop scores every pair neutrally (cross-encoding disabled).
	ProviderNoop ProviderType = "noop"

	// ProviderMock is the deterministic test cross-encoder.
	ProviderMock ProviderType = "mock"
)

// ValidProviders returns all recognized provider names.
func ValidProviders() []string {
	return []string{
		string(ProviderRemote),
		string(ProviderNoop),
		string(ProviderMock),
	}
}

// NewCrossEncoder constructs the configured cross-encoder. Unknown or
// misconfigured providers fail construction; the neutral provider is an
// explicit choice, never a silent substitution.
func NewCrossEncoder(cfg config.RerankerConfig) (CrossEncoder, error) {
	switch ProviderType(strings.ToLower(cfg.Provider)) {
	case ProviderRemote:
		return NewRemoteCrossEncoder(RemoteConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout.Std(),
		})
	case ProviderNoop, "":
		return NewNoOpCrossEncoder(), nil
	case ProviderMock:
		return NewMockCrossEncoder(), nil
	default:
		return nil, rerrors.New(rerrors.ErrCodeProviderUnknown,
			fmt.Sprintf("unknown reranker provider %q (valid: %s)",
				cfg.Provider, strings.Join(ValidProviders(), ", ")), nil)
	}
}
