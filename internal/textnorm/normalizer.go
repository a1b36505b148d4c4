// Package textnorm canonicalizes free-text equipment descriptions.
// Every other ranking component operates on normalized text, so the
// rules here define the vocabulary of the whole pipeline.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccenter decomposes runes and drops combining marks, so "esfregão"
// becomes "esfregao" and "pó" becomes "po".
var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes text for indexing and querying: lowercase,
// diacritics stripped, non-alphanumeric runes replaced by spaces,
// whitespace collapsed and trimmed.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	if out, _, err := transform.String(deaccenter, s); err == nil {
		s = out
	}
	// On transform error the accented form is kept; downstream matching
	// degrades but never fails.

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// Tokens returns the whitespace-separated tokens of the normalized form.
// Returns nil for blank input.
func Tokens(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// ConsonantSignature derives a typo-tolerant signature for a token:
// vowels removed, truncated to maxLen. "vassoura" -> "vssr".
// Tokens whose signature would be empty fall back to the token itself.
func ConsonantSignature(token string, maxLen int) string {
	var b strings.Builder
	for _, r := range token {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', ' ':
		default:
			b.WriteRune(r)
		}
	}
	sig := b.String()
	if sig == "" {
		sig = token
	}
	if maxLen > 0 && len(sig) > maxLen {
		sig = sig[:maxLen]
	}
	return sig
}
