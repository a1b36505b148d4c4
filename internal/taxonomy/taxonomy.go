// Package taxonomy classifies equipment terms into a closed category set.
//
// Detection is total and deterministic: rules are evaluated in a fixed
// priority order, strong (exact) synonyms before weak (containment)
// keywords, so overlapping vocabulary always resolves the same way. The
// assigned category is persisted per document and gates diversification,
// so stability across runs is a hard requirement.
package taxonomy

import (
	"strings"

	"github.com/equiprank/equiprank/internal/textnorm"
)

// Category is a coarse equipment class.
type Category string

// The closed category set.
const (
	CategoryMop          Category = "MOP"
	CategoryVassoura     Category = "VASSOURA"
	CategoryRodo         Category = "RODO"
	CategoryBalde        Category = "BALDE"
	CategoryAspirador    Category = "ASPIRADOR"
	CategoryCarrinho     Category = "CARRINHO"
	CategoryEnceradeira  Category = "ENCERADEIRA"
	CategoryLavadora     Category = "LAVADORA"
	CategoryPano         Category = "PANO"
	CategoryEscova       Category = "ESCOVA"
	CategoryEspanador    Category = "ESPANADOR"
	CategoryDispenser    Category = "DISPENSER"
	CategoryPlaca        Category = "PLACA"
	CategorySacoLixo     Category = "SACO_LIXO"
	CategoryLixeira      Category = "LIXEIRA"
	CategoryPa           Category = "PA"
	CategoryEscada       Category = "ESCADA"
	CategoryDesentupidor Category = "DESENTUPIDOR"
	CategoryLuva         Category = "LUVA"
	CategoryUnknown      Category = "UNKNOWN"
)

// rule defines one category's vocabulary. Strong synonyms are matched as
// exact normalized phrases or whole token phrases inside the term; weak
// keywords are matched the same way but only after every rule's strong
// pass failed, so a weak keyword can never shadow a sibling's strong one.
type rule struct {
	category Category
	strong   []string
	weak     []string
}

// rules is the priority order. Machine categories and mop come first;
// generic accessories (pano, saco, pa) come last so a phrase mentioning
// both resolves to the primary equipment.
var rules = []rule{
	{CategoryMop, []string{"mop", "mope", "esfregao", "mop umido", "mop po"}, []string{"esfregona", "refil mop"}},
	{CategoryAspirador, []string{"aspirador", "aspirador de po", "aspirador po e agua"}, []string{"aspiracao"}},
	{CategoryEnceradeira, []string{"enceradeira"}, []string{"polidora de piso"}},
	{CategoryLavadora, []string{"lavadora", "lava jato", "extratora"}, []string{"alta pressao"}},
	{CategoryCarrinho, []string{"carrinho", "carro funcional", "carrinho funcional"}, []string{"carro de limpeza"}},
	{CategoryBalde, []string{"balde", "balde espremedor"}, []string{"espremedor"}},
	{CategoryVassoura, []string{"vassoura", "vassourao"}, []string{"varricao"}},
	{CategoryRodo, []string{"rodo"}, []string{"puxador de agua"}},
	{CategoryEspanador, []string{"espanador"}, []string{"tira po"}},
	{CategoryDesentupidor, []string{"desentupidor"}, nil},
	{CategoryEscova, []string{"escova"}, []string{"cerdas"}},
	{CategoryPano, []string{"pano", "flanela", "pano de chao"}, []string{"microfibra"}},
	{CategoryDispenser, []string{"dispenser", "saboneteira", "porta papel"}, []string{"refil sabonete"}},
	{CategoryPlaca, []string{"placa sinalizacao", "cavalete"}, []string{"piso molhado", "sinalizacao"}},
	{CategoryLixeira, []string{"lixeira", "cesto de lixo", "papeleira"}, []string{"coletor de residuos"}},
	{CategorySacoLixo, []string{"saco de lixo", "saco lixo"}, []string{"saco plastico"}},
	{CategoryPa, []string{"pa", "pa coletora"}, []string{"pa de lixo"}},
	{CategoryEscada, []string{"escada"}, []string{"degraus"}},
	{CategoryLuva, []string{"luva", "luvas"}, []string{"latex"}},
}

// Detect classifies a term into a category, or CategoryUnknown.
// Input is normalized internally, so raw user text is accepted.
func Detect(term string) Category {
	norm := textnorm.Normalize(term)
	if norm == "" {
		return CategoryUnknown
	}
	tokens := strings.Fields(norm)

	for _, r := range rules {
		for _, syn := range r.strong {
			if norm == syn || hasPhrase(tokens, syn) {
				return r.category
			}
		}
	}
	for _, r := range rules {
		for _, kw := range r.weak {
			if hasPhrase(tokens, kw) {
				return r.category
			}
		}
	}
	return CategoryUnknown
}

// IsKnown reports whether c is a real category (not UNKNOWN or empty).
func IsKnown(c Category) bool {
	return c != "" && c != CategoryUnknown
}

// NameToken returns the category's own name as a normalized token,
// used by the diversifier to exclude the category name from subtype keys.
func NameToken(c Category) string {
	switch c {
	case CategorySacoLixo:
		return "saco"
	case CategoryUnknown:
		return ""
	default:
		return textnorm.Normalize(string(c))
	}
}

// All returns the closed category set in priority order, UNKNOWN last.
func All() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, CategoryUnknown)
}

// hasPhrase reports whether phrase occurs as consecutive whole tokens.
func hasPhrase(tokens []string, phrase string) bool {
	want := strings.Fields(phrase)
	if len(want) == 0 || len(want) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(want) <= len(tokens); i++ {
		for j, w := range want {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}
