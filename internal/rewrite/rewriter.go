// Package rewrite turns a raw query into a ranked set of query variants.
//
// Rewriting is a pure function of (original, compiled maps, options):
// no state is mutated and the same inputs always yield the same plan.
// Abbreviation substitution is category-aware: a bare category name is
// never replaced by one of its subtypes, because that would silently
// narrow a category-level search and destroy recall.
package rewrite

import (
	"strings"
	"time"
	"unicode"

	"github.com/equiprank/equiprank/internal/abbrev"
	"github.com/equiprank/equiprank/internal/taxonomy"
	"github.com/equiprank/equiprank/internal/textnorm"
)

// Variant weights. The primary variant always carries full weight;
// alternates and expansions are damped so they widen recall without
// outranking the user's own words.
const (
	PrimaryWeight   = 1.0
	AlternateWeight = 0.6
)

// Variant reasons recorded in the plan for explainability.
const (
	ReasonPrimary     = "primary"
	ReasonExactAbbrev = "exact-abbrev"
	ReasonTokenAbbrev = "token-abbrev"
	ReasonExpansion   = "expansion"
)

// Variant is one weighted query rewrite.
type Variant struct {
	Query  string  `json:"query"`
	Weight float64 `json:"weight"`
	Reason string  `json:"reason"`
}

// Plan is the result of rewriting one query.
//
// Invariants: Variants[0] == {Primary, 1.0, "primary"}; no two variants
// share normalized query text; len(Variants) <= Options.MaxVariants.
type Plan struct {
	Original      string        `json:"original"`
	Normalized    string        `json:"normalized"`
	Primary       string        `json:"primary"`
	Variants      []Variant     `json:"variants"`
	UsedExpandMap bool          `json:"used_expand_map"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Options bounds the rewrite output.
type Options struct {
	// MaxVariants caps the variant list, primary included.
	MaxVariants int
	// MaxExpansions caps expand-map variants per query.
	MaxExpansions int
	// DisableExpansion turns off generic-token expansion.
	DisableExpansion bool
}

// DefaultOptions returns the standard rewrite bounds.
func DefaultOptions() Options {
	return Options{
		MaxVariants:   10,
		MaxExpansions: 8,
	}
}

// Rewrite produces the query plan for original. compiled may be nil, in
// which case rewriting is a normalization passthrough.
func Rewrite(original string, compiled *abbrev.Compiled, opts Options) Plan {
	start := time.Now()

	if opts.MaxVariants < 1 {
		opts.MaxVariants = DefaultOptions().MaxVariants
	}
	if opts.MaxExpansions < 0 {
		opts.MaxExpansions = 0
	}

	normalized := textnorm.Normalize(original)
	primary := normalized

	var alternates []Variant
	usedExpand := false

	if compiled != nil && primary != "" {
		primary, alternates = applyExactMap(primary, compiled, alternates)
		primary, alternates = applyTokenMap(primary, compiled, alternates)

		if !opts.DisableExpansion && isGenericToken(primary) {
			expansions := compiled.Expand(primary)
			for i, phrase := range expansions {
				if i >= opts.MaxExpansions {
					break
				}
				alternates = append(alternates, Variant{Query: phrase, Weight: AlternateWeight, Reason: ReasonExpansion})
				usedExpand = true
			}
		}
	}

	variants := assemble(primary, alternates, opts.MaxVariants)

	return Plan{
		Original:      original,
		Normalized:    normalized,
		Primary:       primary,
		Variants:      variants,
		UsedExpandMap: usedExpand,
		Elapsed:       time.Since(start),
	}
}

// applyExactMap applies the whole-phrase abbreviation map.
// A primary that is itself a category name keeps its place; the mapped
// phrase joins as a damped alternate instead.
func applyExactMap(primary string, compiled *abbrev.Compiled, alternates []Variant) (string, []Variant) {
	mapped, ok := compiled.Exact(primary)
	if !ok {
		return primary, alternates
	}
	mapped = textnorm.Normalize(mapped)
	if mapped == "" || mapped == primary {
		return primary, alternates
	}

	if isSingleToken(primary) && taxonomy.IsKnown(taxonomy.Detect(primary)) {
		alternates = append(alternates, Variant{Query: mapped, Weight: AlternateWeight, Reason: ReasonExactAbbrev})
		return primary, alternates
	}
	return mapped, alternates
}

// applyTokenMap applies per-token substitution with the same
// category-aware policy as the exact map.
func applyTokenMap(primary string, compiled *abbrev.Compiled, alternates []Variant) (string, []Variant) {
	tokens := strings.Fields(primary)
	replaced := false

	for i, tok := range tokens {
		mapped, ok := compiled.Token(tok)
		if !ok || mapped == tok {
			continue
		}
		if taxonomy.IsKnown(taxonomy.Detect(tok)) {
			with := make([]string, len(tokens))
			copy(with, tokens)
			with[i] = mapped
			alternates = append(alternates, Variant{
				Query:  textnorm.Normalize(strings.Join(with, " ")),
				Weight: AlternateWeight,
				Reason: ReasonTokenAbbrev,
			})
			continue
		}
		tokens[i] = mapped
		replaced = true
	}

	if replaced {
		primary = textnorm.Normalize(strings.Join(tokens, " "))
	}
	return primary, alternates
}

// assemble forces the primary first at full weight, then appends
// alternates in discovery order, deduplicating by normalized text and
// honoring the overall cap.
func assemble(primary string, alternates []Variant, maxVariants int) []Variant {
	variants := make([]Variant, 0, 1+len(alternates))
	variants = append(variants, Variant{Query: primary, Weight: PrimaryWeight, Reason: ReasonPrimary})

	seen := map[string]bool{primary: true}
	for _, v := range alternates {
		if len(variants) >= maxVariants {
			break
		}
		key := textnorm.Normalize(v.Query)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		v.Query = key
		variants = append(variants, v)
	}
	return variants
}

// isSingleToken reports whether s contains exactly one token.
func isSingleToken(s string) bool {
	return s != "" && !strings.ContainsRune(s, ' ')
}

// isGenericToken reports whether s is a single token eligible for
// expansion: length >= 2 and free of digits.
func isGenericToken(s string) bool {
	if !isSingleToken(s) || len(s) < 2 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
