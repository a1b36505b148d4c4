package diversify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/internal/corpus"
	"github.com/equiprank/equiprank/internal/taxonomy"
)

func doc(id, title string, cat taxonomy.Category) *corpus.Document {
	return &corpus.Document{ID: id, Title: title, DocCategory: cat}
}

func TestSubtypeKey(t *testing.T) {
	d := doc("eq-1", "Mop de Limpeza Industrial", taxonomy.CategoryMop)
	assert.Equal(t, "limpeza industrial", SubtypeKey(d))

	// Title reducing to nothing falls back to the id.
	bare := doc("EQ-2", "Mop", taxonomy.CategoryMop)
	assert.Equal(t, "eq 2", SubtypeKey(bare))

	// Accents and case are normalized away.
	acc := doc("eq-3", "Aspirador de Pó Profissional", taxonomy.CategoryAspirador)
	assert.Equal(t, "po profissional", SubtypeKey(acc))
}

func TestApplyCapsPerSubtype(t *testing.T) {
	items := []Item{
		{Doc: doc("a", "Mop umido giratorio", taxonomy.CategoryMop), Score: 0.9},
		{Doc: doc("b", "Mop umido giratorio", taxonomy.CategoryMop), Score: 0.8},
		{Doc: doc("c", "Mop umido giratorio", taxonomy.CategoryMop), Score: 0.7},
		{Doc: doc("d", "Mop seco", taxonomy.CategoryMop), Score: 0.6},
	}

	out := Apply(items, taxonomy.CategoryUnknown, Options{TopK: 3, MaxPerSubtype: 2})
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Doc.ID)
	assert.Equal(t, "b", out[1].Doc.ID)
	// Third "umido giratorio" skipped for the distinct subtype.
	assert.Equal(t, "d", out[2].Doc.ID)
}

func TestApplyCategoryCoverage(t *testing.T) {
	items := []Item{
		{Doc: doc("v1", "Vassoura de pelo", taxonomy.CategoryVassoura), Score: 0.9},
		{Doc: doc("v2", "Vassoura de nylon", taxonomy.CategoryVassoura), Score: 0.85},
		{Doc: doc("m1", "Mop umido", taxonomy.CategoryMop), Score: 0.5},
		{Doc: doc("m2", "Mop seco", taxonomy.CategoryMop), Score: 0.4},
		{Doc: doc("m3", "Mop po", taxonomy.CategoryMop), Score: 0.3},
	}

	out := Apply(items, taxonomy.CategoryMop, Options{TopK: 4, MaxPerSubtype: 2, MinCategoryCoverage: 3})
	require.Len(t, out, 4)

	// The coverage floor occupies the leading positions: the
	// higher-scored vassouras must not displace any of the three mops.
	for i := 0; i < 3; i++ {
		assert.Equal(t, taxonomy.CategoryMop, out[i].Doc.DocCategory, "position %d", i)
	}
	assert.Equal(t, "v1", out[3].Doc.ID)

	// Each segment stays sorted by score.
	assert.Equal(t, "m1", out[0].Doc.ID)
	assert.Equal(t, "m2", out[1].Doc.ID)
	assert.Equal(t, "m3", out[2].Doc.ID)
}

func TestApplyRelaxesCapWhenShort(t *testing.T) {
	// Only one subtype exists; the cap alone would return 2 of 4.
	items := make([]Item, 4)
	for i := range items {
		items[i] = Item{
			Doc:   doc(fmt.Sprintf("d%d", i), "Balde espremedor", taxonomy.CategoryBalde),
			Score: 1.0 - float64(i)*0.1,
		}
	}

	out := Apply(items, taxonomy.CategoryUnknown, Options{TopK: 4, MaxPerSubtype: 2})
	assert.Len(t, out, 4)
}

func TestApplyUnknownCategorySkipsCoverage(t *testing.T) {
	items := []Item{
		{Doc: doc("a", "Mop umido", taxonomy.CategoryMop), Score: 0.9},
		{Doc: doc("b", "Vassoura de nylon", taxonomy.CategoryVassoura), Score: 0.8},
	}

	out := Apply(items, taxonomy.CategoryUnknown, Options{TopK: 2, MaxPerSubtype: 2, MinCategoryCoverage: 3})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Doc.ID)
}

func TestApplyEmptyAndZeroK(t *testing.T) {
	assert.Nil(t, Apply(nil, taxonomy.CategoryMop, DefaultOptions()))
	assert.Nil(t, Apply([]Item{{Doc: doc("a", "Mop", taxonomy.CategoryMop), Score: 1}},
		taxonomy.CategoryMop, Options{TopK: 0}))
}
