package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equiprank/equiprank/internal/abbrev"
	"github.com/equiprank/equiprank/internal/config"
	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/engine"
	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/index"
	"github.com/equiprank/equiprank/internal/ui"
	"github.com/equiprank/equiprank/internal/watch"
)

// newSearchCmd creates the search command. With a query argument it runs
// once; without one it reads queries from stdin and reloads the corpus
// on file changes.
func newSearchCmd() *cobra.Command {
	var topK int
	var minScore float64
	var jsonOutput bool
	var noCache bool
	var offline bool
	var noExpand bool
	var noDiversify bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank the catalog against a free-text description",
		Long: `Search runs the full ranking pipeline for a short Portuguese
equipment description, e.g.:

  equiprank search "mop umido giratorio" --top-k 5

Without a query it enters interactive mode, reading one query per line
and picking up corpus edits automatically.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if offline {
				cfg.Embeddings.Provider = "static"
				cfg.Reranker.Provider = "noop"
			}

			req := engine.Request{
				TopK:                   topK,
				MinScore:               minScore,
				BypassCache:            noCache,
				DisableExpansion:       noExpand,
				DisableDiversification: noDiversify,
			}
			renderer := newRenderer(cmd, jsonOutput)

			if len(args) == 0 {
				return runInteractive(cmd, cfg, req, renderer)
			}
			req.Query = strings.Join(args, " ")
			return runOnce(cmd.Context(), cfg, req, renderer)
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "Result count (default from config)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Drop results below this combined score")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the full response as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use local static embeddings, no remote providers")
	cmd.Flags().BoolVar(&noExpand, "no-expand", false, "Disable abbreviation-based query expansion")
	cmd.Flags().BoolVar(&noDiversify, "no-diversify", false, "Return the raw ranking without diversification")

	return cmd
}

// responseRenderer abstracts plain vs JSON output.
type responseRenderer func(*engine.Response) error

func newRenderer(cmd *cobra.Command, jsonOutput bool) responseRenderer {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return func(resp *engine.Response) error {
			return enc.Encode(resp)
		}
	}
	styled := ui.NewRenderer(out, ui.GetStyles(!ui.UseColor(out, noColor)))
	return func(resp *engine.Response) error {
		styled.Response(resp)
		return nil
	}
}

// buildEngine assembles the engine from the configured corpus, preferring
// a saved snapshot over a fresh index build when one is present.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	docs, err := corpus.Load(cfg.Paths.Corpus)
	if err != nil {
		return nil, err
	}

	src := engine.FromDocuments(docs)
	if snap, err := index.Load(cfg.Paths.Snapshot); err == nil {
		src = engine.FromSnapshot(docs, snap)
	} else if rerrors.CodeOf(err) != rerrors.ErrCodeArtifactMissing {
		// A corrupt snapshot is recoverable here: re-index instead.
		slog.Warn("ignoring snapshot, rebuilding index",
			slog.String("path", cfg.Paths.Snapshot),
			slog.String("error", err.Error()))
	}

	return engine.New(ctx, cfg, src,
		engine.WithAbbreviations(abbrev.NewRegistry(cfg.Paths.Abbreviations)))
}

func runOnce(ctx context.Context, cfg *config.Config, req engine.Request, render responseRenderer) error {
	e, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	resp, err := e.Search(ctx, req)
	if err != nil {
		return err
	}
	return render(resp)
}

// runInteractive serves queries from stdin against an engine handle that
// is rebuilt and swapped whenever the corpus file changes.
func runInteractive(cmd *cobra.Command, cfg *config.Config, req engine.Request, render responseRenderer) error {
	ctx := cmd.Context()

	initial, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	handle := watch.NewHandle(initial)

	watcher, err := watch.New(cfg.Paths.Corpus, watch.Options{})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	go watch.NewReloader(handle, watcher, func(ctx context.Context) (*engine.Engine, error) {
		return buildEngine(ctx, cfg)
	}, nil).Run(ctx)

	fmt.Fprintln(cmd.OutOrStdout(), "enter one description per line (ctrl-d to exit)")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		q := req
		q.Query = line
		resp, err := handle.Engine().Search(ctx, q)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			continue
		}
		if err := render(resp); err != nil {
			return err
		}
	}
	return handle.Engine().Close()
}
