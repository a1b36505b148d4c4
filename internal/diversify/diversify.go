// Package diversify reorders a ranked candidate list so the final top-K
// is not dominated by near-identical subtypes of one equipment line,
// while keeping enough in-category results to stay on topic.
package diversify

import (
	"sort"
	"strings"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/taxonomy"
	"github.com/equiprank/equiprank/internal/textnorm"
)

// Options tunes the selection passes.
type Options struct {
	// TopK is how many items to select.
	TopK int
	// MaxPerSubtype caps selected items per subtype key.
	MaxPerSubtype int
	// MinCategoryCoverage is the floor of in-category items in the
	// selection when the query category is known.
	MinCategoryCoverage int
}

// DefaultOptions returns the selection defaults.
func DefaultOptions() Options {
	return Options{
		TopK:                10,
		MaxPerSubtype:       2,
		MinCategoryCoverage: 3,
	}
}

// Item is one ranked candidate entering diversification. Items arrive
// sorted by descending score; selection never improves an item's rank,
// it only skips over-represented subtypes.
type Item struct {
	Doc   *corpus.Document
	Score float64
}

// portugueseStopwords are function words excluded from subtype keys.
var portugueseStopwords = map[string]bool{
	"a": true, "o": true, "as": true, "os": true,
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"e": true, "em": true, "no": true, "na": true, "nos": true, "nas": true,
	"um": true, "uma": true, "para": true, "com": true, "por": true,
}

// SubtypeKey derives the grouping key that identifies near-identical
// variants: the document's title tokens minus stopwords and minus the
// category's own name token. A title that reduces to nothing falls back
// to the normalized document id so the item still groups with itself.
func SubtypeKey(doc *corpus.Document) string {
	catToken := taxonomy.NameToken(doc.DocCategory)

	var kept []string
	for _, tok := range textnorm.Tokens(doc.DisplayTitle()) {
		if portugueseStopwords[tok] || tok == catToken {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return textnorm.Normalize(doc.ID)
	}
	return strings.Join(kept, " ")
}

// Apply selects up to opts.TopK items in three passes:
//
//  1. Coverage: when the query category is known, in-category items are
//     taken first (per-subtype cap applies) until the coverage floor.
//  2. Fill: remaining slots are filled in rank order, cap still applied.
//  3. Relaxation: if the cap left slots empty, they are filled in rank
//     order ignoring the cap, so a narrow corpus never truncates results.
//
// Coverage items occupy the leading positions of the returned slice;
// the coverage segment and the remainder are each sorted by descending
// score. An off-category item can never outrank the coverage floor.
func Apply(items []Item, queryCategory taxonomy.Category, opts Options) []Item {
	if opts.TopK <= 0 || len(items) == 0 {
		return nil
	}
	if opts.MaxPerSubtype <= 0 {
		opts.MaxPerSubtype = DefaultOptions().MaxPerSubtype
	}

	selected := make([]Item, 0, opts.TopK)
	taken := make(map[int]bool, len(items))
	perSubtype := make(map[string]int)

	take := func(i int) {
		selected = append(selected, items[i])
		taken[i] = true
		perSubtype[SubtypeKey(items[i].Doc)]++
	}

	// Pass 1: category coverage. These hold the leading output slots.
	coverageLen := 0
	if taxonomy.IsKnown(queryCategory) && opts.MinCategoryCoverage > 0 {
		covered := 0
		for i := range items {
			if covered >= opts.MinCategoryCoverage || len(selected) >= opts.TopK {
				break
			}
			if items[i].Doc.DocCategory != queryCategory {
				continue
			}
			if perSubtype[SubtypeKey(items[i].Doc)] >= opts.MaxPerSubtype {
				continue
			}
			take(i)
			covered++
		}
		coverageLen = len(selected)
	}

	// Pass 2: fill by rank with the subtype cap.
	for i := range items {
		if len(selected) >= opts.TopK {
			break
		}
		if taken[i] {
			continue
		}
		if perSubtype[SubtypeKey(items[i].Doc)] >= opts.MaxPerSubtype {
			continue
		}
		take(i)
	}

	// Pass 3: relax the cap rather than return short.
	for i := range items {
		if len(selected) >= opts.TopK {
			break
		}
		if taken[i] {
			continue
		}
		take(i)
	}

	// Sorting the whole selection would let a high-scored off-category
	// item displace the coverage floor from the leading positions, so
	// the coverage segment and the remainder are ordered independently.
	sortByScore(selected[:coverageLen])
	sortByScore(selected[coverageLen:])
	return selected
}

func sortByScore(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Score != items[b].Score {
			return items[a].Score > items[b].Score
		}
		return items[a].Doc.ID < items[b].Doc.ID
	})
}
