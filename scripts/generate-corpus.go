//go:build ignore

// Generates a synthetic cleaning-equipment corpus for benchmarks and
// manual testing.
// Usage: go run scripts/generate-corpus.go -docs 500 -output corpus.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
)

var (
	numDocs = flag.Int("docs", 500, "Number of documents to generate")
	output  = flag.String("output", "corpus.json", "Output file")
	seed    = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var bases = []struct {
	category string
	names    []string
}{
	{"MOP", []string{"mop umido giratorio", "mop seco profissional", "mop po acrilico"}},
	{"VASSOURA", []string{"vassoura de nylon", "vassoura piacava", "vassoura gari 40cm"}},
	{"RODO", []string{"rodo de aluminio 45cm", "rodo duplo 60cm"}},
	{"BALDE", []string{"balde espremedor", "balde plastico 20 litros"}},
	{"ASPIRADOR", []string{"aspirador de po profissional", "aspirador po e agua"}},
	{"CARRINHO", []string{"carrinho de limpeza funcional", "carrinho multiuso"}},
	{"PANO", []string{"pano de chao alvejado", "pano multiuso microfibra"}},
	{"LUVA", []string{"luva latex tamanho g", "luva nitrilica"}},
}

var qualifiers = []string{
	"", "industrial", "com cabo de aluminio", "profissional", "reforcado",
	"amarelo", "azul", "com refil", "uso hospitalar", "grande",
}

type document struct {
	ID       string  `json:"id"`
	GroupID  string  `json:"groupId"`
	Title    string  `json:"title"`
	Price    float64 `json:"price,omitempty"`
	Lifespan float64 `json:"lifespanMonths,omitempty"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	docs := make([]document, 0, *numDocs)
	for i := 0; i < *numDocs; i++ {
		base := bases[rng.Intn(len(bases))]
		name := base.names[rng.Intn(len(base.names))]
		q := qualifiers[rng.Intn(len(qualifiers))]
		title := name
		if q != "" {
			title += " " + q
		}
		docs = append(docs, document{
			ID:       fmt.Sprintf("eq-%04d", i+1),
			GroupID:  fmt.Sprintf("g-%s-%02d", base.category, rng.Intn(10)),
			Title:    title,
			Price:    10 + rng.Float64()*490,
			Lifespan: float64(3 + rng.Intn(36)),
		})
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d documents to %s\n", len(docs), *output)
}
