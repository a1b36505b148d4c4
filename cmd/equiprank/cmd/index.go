package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/index"
)

// newIndexCmd creates the index command: build the lexical index from
// the corpus and persist it as a snapshot artifact.
func newIndexCmd() *cobra.Command {
	var corpusPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the lexical index snapshot from the corpus",
		Long: `Index loads the JSON corpus, builds the BM25 index, and writes a
versioned snapshot. Search restores the snapshot instead of re-indexing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if corpusPath == "" {
				corpusPath = cfg.Paths.Corpus
			}
			if outPath == "" {
				outPath = cfg.Paths.Snapshot
			}

			start := time.Now()
			docs, err := corpus.Load(corpusPath)
			if err != nil {
				return err
			}

			ix := index.Build(docs, index.Config{
				K1: cfg.Search.BM25K1,
				B:  cfg.Search.BM25B,
			})
			if err := index.Save(outPath, ix.Snapshot()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents (%d terms) in %s -> %s\n",
				ix.DocCount(), ix.TermCount(), time.Since(start).Round(time.Millisecond), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Corpus JSON path (default from config)")
	cmd.Flags().StringVar(&outPath, "out", "", "Snapshot output path (default from config)")

	return cmd
}
