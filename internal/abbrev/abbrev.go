// Package abbrev loads the compiled abbreviation artifact used for
// query rewriting. The artifact is an optional side input: when it is
// missing or malformed the pipeline continues without rewriting.
package abbrev

import (
	"encoding/json"
	"os"

	"github.com/equiprank/equiprank/internal/textnorm"
)

// Artifact is the on-disk JSON shape of the abbreviation maps.
type Artifact struct {
	// ExactMap maps a normalized phrase to its canonical phrase.
	ExactMap map[string]string `json:"exactMap"`
	// TokenMap maps a single token to its canonical token.
	TokenMap map[string]string `json:"tokenMap"`
	// ExpandMap maps a generic token to ordered alternative phrases.
	ExpandMap map[string][]string `json:"expandMap"`
}

// Compiled is the immutable, normalized form of the artifact.
// All keys and values are pre-normalized; lookups never normalize again.
type Compiled struct {
	exact  map[string]string
	token  map[string]string
	expand map[string][]string
}

// Compile normalizes an artifact into its immutable lookup form.
// Entries whose key or value normalizes to empty are dropped.
func Compile(a Artifact) *Compiled {
	c := &Compiled{
		exact:  make(map[string]string, len(a.ExactMap)),
		token:  make(map[string]string, len(a.TokenMap)),
		expand: make(map[string][]string, len(a.ExpandMap)),
	}
	for k, v := range a.ExactMap {
		nk, nv := textnorm.Normalize(k), textnorm.Normalize(v)
		if nk != "" && nv != "" {
			c.exact[nk] = nv
		}
	}
	for k, v := range a.TokenMap {
		nk, nv := textnorm.Normalize(k), textnorm.Normalize(v)
		if nk != "" && nv != "" {
			c.token[nk] = nv
		}
	}
	for k, vs := range a.ExpandMap {
		nk := textnorm.Normalize(k)
		if nk == "" {
			continue
		}
		phrases := make([]string, 0, len(vs))
		for _, v := range vs {
			if nv := textnorm.Normalize(v); nv != "" {
				phrases = append(phrases, nv)
			}
		}
		if len(phrases) > 0 {
			c.expand[nk] = phrases
		}
	}
	return c
}

// Exact looks up a normalized phrase in the exact map.
func (c *Compiled) Exact(phrase string) (string, bool) {
	v, ok := c.exact[phrase]
	return v, ok
}

// Token looks up a single normalized token in the token map.
func (c *Compiled) Token(tok string) (string, bool) {
	v, ok := c.token[tok]
	return v, ok
}

// Expand returns the ordered alternative phrases for a generic token.
func (c *Compiled) Expand(tok string) []string {
	return c.expand[tok]
}

// Len reports the total number of compiled entries, for logging.
func (c *Compiled) Len() int {
	return len(c.exact) + len(c.token) + len(c.expand)
}

// LoadFile reads and compiles an artifact from a JSON file.
func LoadFile(path string) (*Compiled, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return Compile(a), nil
}
