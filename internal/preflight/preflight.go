// Package preflight validates that an equiprank installation can serve
// queries: corpus readable, snapshot usable, providers reachable.
package preflight

import (
	"context"
	"fmt"

	"github.com/equiprank/equiprank/internal/config"
	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/embed"
	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/index"
	"github.com/equiprank/equiprank/internal/rerank"
)

// CheckStatus is the outcome of one preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical finding; search still works.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Required bool        `json:"required"`
}

// IsCritical reports a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Run executes all checks against cfg. Results always cover every check;
// callers decide how to treat warnings.
func Run(ctx context.Context, cfg *config.Config) []CheckResult {
	return []CheckResult{
		checkConfig(cfg),
		checkCorpus(cfg),
		checkSnapshot(cfg),
		checkEmbedder(ctx, cfg),
		checkReranker(ctx, cfg),
	}
}

// Healthy reports whether no required check failed.
func Healthy(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return false
		}
	}
	return true
}

func checkConfig(cfg *config.Config) CheckResult {
	if err := cfg.Validate(); err != nil {
		return CheckResult{Name: "config", Status: StatusFail, Message: err.Error(), Required: true}
	}
	return CheckResult{Name: "config", Status: StatusPass, Message: "configuration valid", Required: true}
}

func checkCorpus(cfg *config.Config) CheckResult {
	docs, err := corpus.Load(cfg.Paths.Corpus)
	if err != nil {
		return CheckResult{Name: "corpus", Status: StatusFail, Message: err.Error(), Required: true}
	}
	return CheckResult{
		Name:     "corpus",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d documents at %s", len(docs), cfg.Paths.Corpus),
		Required: true,
	}
}

func checkSnapshot(cfg *config.Config) CheckResult {
	snap, err := index.Load(cfg.Paths.Snapshot)
	switch {
	case err == nil:
		return CheckResult{
			Name:    "snapshot",
			Status:  StatusPass,
			Message: fmt.Sprintf("version %d, %d documents", snap.Version, len(snap.DocOrder)),
		}
	case rerrors.CodeOf(err) == rerrors.ErrCodeArtifactMissing:
		return CheckResult{
			Name:    "snapshot",
			Status:  StatusWarn,
			Message: "no snapshot, search will index on startup (run: equiprank index)",
		}
	default:
		return CheckResult{Name: "snapshot", Status: StatusWarn, Message: err.Error()}
	}
}

func checkEmbedder(ctx context.Context, cfg *config.Config) CheckResult {
	e, err := embed.NewEmbedder(cfg.Embeddings)
	if err != nil {
		return CheckResult{Name: "embedder", Status: StatusFail, Message: err.Error(), Required: true}
	}
	defer func() { _ = e.Close() }()

	if !e.Available(ctx) {
		return CheckResult{
			Name:    "embedder",
			Status:  StatusWarn,
			Message: e.ModelName() + " unreachable, searches will degrade to lexical-only",
		}
	}
	return CheckResult{Name: "embedder", Status: StatusPass, Message: e.ModelName(), Required: true}
}

func checkReranker(ctx context.Context, cfg *config.Config) CheckResult {
	ce, err := rerank.NewCrossEncoder(cfg.Reranker)
	if err != nil {
		return CheckResult{Name: "reranker", Status: StatusFail, Message: err.Error(), Required: true}
	}
	defer func() { _ = ce.Close() }()

	if !ce.Available(ctx) {
		return CheckResult{
			Name:    "reranker",
			Status:  StatusWarn,
			Message: ce.ModelName() + " unreachable, neutral rerank scores will be used",
		}
	}
	return CheckResult{Name: "reranker", Status: StatusPass, Message: ce.ModelName()}
}
