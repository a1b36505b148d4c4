package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/equiprank/equiprank/internal/engine"
	"github.com/equiprank/equiprank/internal/taxonomy"
)

// Renderer writes human-readable search output.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for w. Styled output only makes sense
// on interactive terminals; callers pick via GetStyles/UseColor.
func NewRenderer(w io.Writer, styles Styles) *Renderer {
	return &Renderer{out: w, styles: styles}
}

// Response renders one search response as a ranked list.
func (r *Renderer) Response(resp *engine.Response) {
	s := r.styles

	header := fmt.Sprintf("%d results for %q", len(resp.Results), resp.Normalized)
	fmt.Fprintln(r.out, s.Header.Render(header))

	var notes []string
	if taxonomy.IsKnown(resp.Category) {
		notes = append(notes, "category "+string(resp.Category))
	}
	if resp.Cached {
		notes = append(notes, "cached")
	}
	notes = append(notes, resp.Elapsed.Round(100*time.Microsecond).String())
	fmt.Fprintln(r.out, s.Dim.Render(strings.Join(notes, " · ")))

	if resp.Fallback {
		fmt.Fprintln(r.out, s.Warning.Render("degraded: lexical-only ranking ("+resp.FallbackReason+")"))
	}

	for i, res := range resp.Results {
		fmt.Fprintln(r.out)
		rank := fmt.Sprintf("%2d.", i+1)
		line := rank + " " + s.Title.Render(res.Title)
		if taxonomy.IsKnown(res.Category) {
			line += " " + s.Category.Render("["+string(res.Category)+"]")
		}
		fmt.Fprintln(r.out, line)

		sc := res.Scores
		fmt.Fprintf(r.out, "    %s %s  %s\n",
			s.Label.Render("score"),
			s.Score.Render(fmt.Sprintf("%.3f", sc.Combined)),
			s.Dim.Render(fmt.Sprintf("lex %.2f · sem %.2f · rer %.2f · dom %.2f",
				sc.Lexical, sc.Semantic, sc.Reranker, sc.Domain)))

		if len(res.MatchedTerms) > 0 {
			terms := strings.Join(res.MatchedTerms, ", ")
			if res.Fuzzy {
				terms += " (fuzzy)"
			}
			fmt.Fprintf(r.out, "    %s %s\n", s.Label.Render("matched"), s.Dim.Render(terms))
		}
		if len(res.Related) > 0 {
			fmt.Fprintf(r.out, "    %s %s\n",
				s.Label.Render("related"), s.Dim.Render(strings.Join(res.Related, ", ")))
		}
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(r.out, s.Dim.Render("no matching equipment"))
	}
}

// Stats renders engine statistics and query telemetry.
func (r *Renderer) Stats(st engine.Stats) {
	s := r.styles

	fmt.Fprintln(r.out, s.Header.Render("equiprank engine"))
	fmt.Fprintf(r.out, "  %s %d\n", s.Label.Render("documents"), st.Documents)
	fmt.Fprintf(r.out, "  %s %d\n", s.Label.Render("terms"), st.Terms)
	fmt.Fprintf(r.out, "  %s %d\n", s.Label.Render("cached queries"), st.CachedQueries)
	fmt.Fprintf(r.out, "  %s %s\n", s.Label.Render("embedder"), st.EmbedderModel)
	fmt.Fprintf(r.out, "  %s %s\n", s.Label.Render("reranker"), st.RerankerModel)

	m := st.Metrics
	if m == nil || m.TotalQueries == 0 {
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, s.Header.Render("queries"))
	fmt.Fprintf(r.out, "  %s %d\n", s.Label.Render("total"), m.TotalQueries)
	fmt.Fprintf(r.out, "  %s %.1f%%\n", s.Label.Render("zero results"), m.ZeroResultPercentage())
	fmt.Fprintf(r.out, "  %s %.1f%%\n", s.Label.Render("cache hits"), 100*m.CacheHitRate())
	fmt.Fprintf(r.out, "  %s %d\n", s.Label.Render("fallbacks"), m.FallbackCount)

	if len(m.CategoryCounts) > 0 {
		cats := make([]string, 0, len(m.CategoryCounts))
		for c := range m.CategoryCounts {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		fmt.Fprintln(r.out, s.Label.Render("  by category"))
		for _, c := range cats {
			fmt.Fprintf(r.out, "    %-14s %d\n", c, m.CategoryCounts[taxonomy.Category(c)])
		}
	}

	if len(m.TopTerms) > 0 {
		fmt.Fprintln(r.out, s.Label.Render("  top terms"))
		for i, tc := range m.TopTerms {
			if i == 10 {
				break
			}
			fmt.Fprintf(r.out, "    %-14s %d\n", tc.Term, tc.Count)
		}
	}
}

// Error renders a failure line.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.out, r.styles.Error.Render("error: "+err.Error()))
}
