// Package index implements the lexical retrieval channel: a BM25
// inverted index over normalized document text plus a consonant-signature
// fuzzy matcher for typo tolerance.
//
// An Index is constructed exactly once, either fresh from a document
// collection (Build) or from a persisted snapshot (Restore); the two
// paths never mix on one instance. After construction the index is
// read-only and safe for concurrent searches.
package index

import (
	"math"
	"sort"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/textnorm"
)

// Config holds the BM25 and fuzzy-matcher constants.
type Config struct {
	// K1 controls term-frequency saturation.
	K1 float64
	// B controls document-length normalization.
	B float64
	// SignatureLength truncates consonant signatures.
	SignatureLength int
}

// DefaultConfig returns constants tuned for short equipment descriptions.
func DefaultConfig() Config {
	return Config{K1: 1.4, B: 0.75, SignatureLength: 6}
}

// FuzzyDamping scales fuzzy-channel contributions so a signature match
// can surface a document but never outrank a same-strength exact match.
const FuzzyDamping = 0.5

// Candidate is one lexical retrieval hit.
type Candidate struct {
	// DocID identifies the matched document.
	DocID string
	// Score is the BM25 score (fuzzy contributions damped).
	Score float64
	// MatchedTerms lists the index terms that contributed.
	MatchedTerms []string
	// Fuzzy is true when only the fuzzy channel matched this document.
	Fuzzy bool
}

// Index is the in-memory inverted index.
type Index struct {
	cfg Config

	postings   map[string]map[string]int // term -> docID -> tf
	docLengths map[string]int
	docOrder   []string
	totalLen   int

	signatures map[string][]string // consonant signature -> sorted terms
}

// Build constructs a fresh index from a document collection.
func Build(docs []*corpus.Document, cfg Config) *Index {
	if cfg.K1 <= 0 {
		cfg.K1 = DefaultConfig().K1
	}
	if cfg.B < 0 || cfg.B > 1 {
		cfg.B = DefaultConfig().B
	}
	if cfg.SignatureLength <= 0 {
		cfg.SignatureLength = DefaultConfig().SignatureLength
	}

	ix := &Index{
		cfg:        cfg,
		postings:   make(map[string]map[string]int),
		docLengths: make(map[string]int, len(docs)),
		docOrder:   make([]string, 0, len(docs)),
		signatures: make(map[string][]string),
	}

	for _, d := range docs {
		tokens := textnorm.Tokens(d.IndexText())
		ix.docLengths[d.ID] = len(tokens)
		ix.docOrder = append(ix.docOrder, d.ID)
		ix.totalLen += len(tokens)
		for _, tok := range tokens {
			m := ix.postings[tok]
			if m == nil {
				m = make(map[string]int)
				ix.postings[tok] = m
			}
			m[d.ID]++
		}
	}

	ix.buildSignatures()
	return ix
}

// buildSignatures derives the consonant-signature map from the postings
// vocabulary. Terms per signature are sorted for deterministic matching.
func (ix *Index) buildSignatures() {
	for term := range ix.postings {
		sig := textnorm.ConsonantSignature(term, ix.cfg.SignatureLength)
		ix.signatures[sig] = append(ix.signatures[sig], term)
	}
	for sig := range ix.signatures {
		sort.Strings(ix.signatures[sig])
	}
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() int {
	return len(ix.docOrder)
}

// TermCount returns the vocabulary size.
func (ix *Index) TermCount() int {
	return len(ix.postings)
}

// Search ranks documents against the normalized query by BM25. Query
// tokens absent from the vocabulary fall back to the fuzzy channel:
// vocabulary terms sharing the token's consonant signature contribute at
// FuzzyDamping strength. limit <= 0 returns all matches.
func (ix *Index) Search(query string, limit int) []Candidate {
	tokens := textnorm.Tokens(query)
	if len(tokens) == 0 || ix.DocCount() == 0 {
		return nil
	}

	type acc struct {
		score   float64
		terms   []string
		exact   bool
	}
	accs := make(map[string]*acc)

	add := func(term string, damping float64, exact bool) {
		idf := ix.idf(len(ix.postings[term]))
		for docID, tf := range ix.postings[term] {
			a := accs[docID]
			if a == nil {
				a = &acc{}
				accs[docID] = a
			}
			a.score += damping * idf * ix.tfNorm(tf, ix.docLengths[docID])
			a.terms = append(a.terms, term)
			if exact {
				a.exact = true
			}
		}
	}

	seen := map[string]bool{}
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true

		if _, ok := ix.postings[tok]; ok {
			add(tok, 1.0, true)
			continue
		}
		// Fuzzy fallback: only consulted when the exact term is absent,
		// so it can widen recall but never replaces exact ranking.
		sig := textnorm.ConsonantSignature(tok, ix.cfg.SignatureLength)
		for _, term := range ix.signatures[sig] {
			add(term, FuzzyDamping, false)
		}
	}

	results := make([]Candidate, 0, len(accs))
	for docID, a := range accs {
		results = append(results, Candidate{
			DocID:        docID,
			Score:        a.score,
			MatchedTerms: dedupeSorted(a.terms),
			Fuzzy:        !a.exact,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// idf is the BM25 inverse document frequency with the +1 smoothing that
// keeps it positive for terms present in most documents.
func (ix *Index) idf(df int) float64 {
	n := float64(ix.DocCount())
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}

// tfNorm is the BM25 term-frequency component with length normalization.
func (ix *Index) tfNorm(tf, docLen int) float64 {
	avg := ix.avgDocLen()
	f := float64(tf)
	return f * (ix.cfg.K1 + 1) / (f + ix.cfg.K1*(1-ix.cfg.B+ix.cfg.B*float64(docLen)/avg))
}

func (ix *Index) avgDocLen() float64 {
	if len(ix.docLengths) == 0 {
		return 1
	}
	return float64(ix.totalLen) / float64(len(ix.docLengths))
}

// dedupeSorted sorts and deduplicates the matched-term list.
func dedupeSorted(terms []string) []string {
	if len(terms) <= 1 {
		return terms
	}
	sort.Strings(terms)
	out := terms[:1]
	for _, t := range terms[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}
