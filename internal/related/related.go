// Package related suggests equipment similar to a result through an
// approximate nearest-neighbor graph over the corpus embeddings.
// Suggestions are group-distinct: variants of the same equipment line
// never recommend each other.
package related

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/embed"
)

// DefaultCount is the default number of suggestions per result.
const DefaultCount = 3

// overfetch widens the neighbor search so group filtering still leaves
// enough distinct suggestions.
const overfetch = 4

// Graph is the similarity graph over corpus documents. Read-only and
// safe for concurrent queries after Build.
type Graph struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]

	keyToID map[uint64]string
	idToKey map[string]uint64
	groupOf map[string]string
	vectors map[string][]float32
}

// Build embeds every document (reusing precomputed embeddings when the
// corpus carries them) and assembles the neighbor graph.
func Build(ctx context.Context, docs []*corpus.Document, embedder embed.Embedder) (*Graph, error) {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance

	g := &Graph{
		graph:   graph,
		keyToID: make(map[uint64]string, len(docs)),
		idToKey: make(map[string]uint64, len(docs)),
		groupOf: make(map[string]string, len(docs)),
		vectors: make(map[string][]float32, len(docs)),
	}

	// Collect documents that still need embedding.
	var pendingTexts []string
	var pendingDocs []*corpus.Document
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			pendingTexts = append(pendingTexts, d.SemanticBody())
			pendingDocs = append(pendingDocs, d)
		}
	}

	embedded := make(map[string][]float32, len(pendingDocs))
	if len(pendingTexts) > 0 {
		vecs, err := embedder.EmbedBatch(ctx, pendingTexts)
		if err != nil {
			return nil, fmt.Errorf("embed corpus for related graph: %w", err)
		}
		for i, d := range pendingDocs {
			embedded[d.ID] = vecs[i]
		}
	}

	var key uint64
	for _, d := range docs {
		vec := d.Embedding
		if len(vec) == 0 {
			vec = embedded[d.ID]
		}
		if len(vec) == 0 {
			continue
		}

		g.graph.Add(hnsw.MakeNode(key, vec))
		g.keyToID[key] = d.ID
		g.idToKey[d.ID] = key
		g.groupOf[d.ID] = d.GroupID
		g.vectors[d.ID] = vec
		key++
	}

	return g, nil
}

// Len returns the number of indexed documents.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Len()
}

// Related returns up to count document ids similar to docID, skipping
// the document itself, its group, and repeated groups.
func (g *Graph) Related(docID string, count int) []string {
	if count <= 0 {
		count = DefaultCount
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	vec, ok := g.vectors[docID]
	if !ok || g.graph.Len() == 0 {
		return nil
	}

	nodes := g.graph.Search(vec, count*overfetch)

	sourceGroup := g.groupOf[docID]
	seenGroups := map[string]bool{sourceGroup: true}

	var out []string
	for _, node := range nodes {
		id, ok := g.keyToID[node.Key]
		if !ok || id == docID {
			continue
		}
		group := g.groupOf[id]
		if seenGroups[group] {
			continue
		}
		seenGroups[group] = true
		out = append(out, id)
		if len(out) >= count {
			break
		}
	}
	return out
}
