// Package worldmap builds the territory adjacency graph every screen depends
// on. Two sources produce the same Graph contract: the hardcoded classic
// 10-territory table and a border dataset restricted to the codes present in
// the visual map.
package worldmap

import (
	"sort"
)

// Country is one territory of the catalog: a stable code, a display name,
// and the codes of its neighbors.
type Country struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Neighbors []string `json:"neighbors"`
}

// Graph is the bidirectional territory-adjacency index plus the mapping
// between map codes and on-chain territory ids. The catalog is fixed at
// build time; a Graph is immutable after construction.
type Graph struct {
	countries []Country
	neighbors map[string]map[string]bool
	names     map[string]string
	idByCode  map[string]int
	codeByID  map[int]string
}

// newGraph assembles a Graph from a name table and a symmetric neighbor
// index, sorting the catalog alphabetically by display name.
func newGraph(names map[string]string, neighbors map[string]map[string]bool) *Graph {
	g := &Graph{
		neighbors: neighbors,
		names:     names,
		idByCode:  make(map[string]int, len(names)),
		codeByID:  make(map[int]string, len(names)),
	}

	g.countries = make([]Country, 0, len(names))
	for code, name := range names {
		g.countries = append(g.countries, Country{
			Code:      code,
			Name:      name,
			Neighbors: sortedCodes(neighbors[code]),
		})
	}
	sort.Slice(g.countries, func(i, j int) bool {
		if g.countries[i].Name != g.countries[j].Name {
			return g.countries[i].Name < g.countries[j].Name
		}
		return g.countries[i].Code < g.countries[j].Code
	})

	g.assignContractIDs()
	return g
}

// contractTerritories pins map codes to on-chain token ids for the deployed
// world contract. Used only while the catalog fits the deployed set;
// larger catalogs fall back to positional ids.
var contractTerritories = []struct {
	id   int
	code string
}{
	{0, "CA"},
	{1, "RU"},
	{2, "CN"},
	{3, "US"},
	{4, "IN"},
	{5, "EG"},
	{6, "BR"},
	{7, "AR"},
	{8, "ZA"},
	{9, "AU"},
}

// assignContractIDs maps catalog codes to contract territory ids. When the
// catalog outgrows the pinned table, every country gets its positional index
// in the sorted catalog; otherwise only the pinned codes are addressable.
func (g *Graph) assignContractIDs() {
	if len(g.countries) > len(contractTerritories) {
		for i, c := range g.countries {
			g.idByCode[c.Code] = i
			g.codeByID[i] = c.Code
		}
		return
	}
	for _, t := range contractTerritories {
		if _, ok := g.names[t.code]; !ok {
			continue
		}
		g.idByCode[t.code] = t.id
		g.codeByID[t.id] = t.code
	}
}

// Countries returns the catalog sorted alphabetically by display name.
func (g *Graph) Countries() []Country {
	return g.countries
}

// Len returns the catalog size.
func (g *Graph) Len() int {
	return len(g.countries)
}

// Name returns the display name for a code, or the code itself when the
// catalog has no entry.
func (g *Graph) Name(code string) string {
	if n, ok := g.names[code]; ok {
		return n
	}
	return code
}

// Neighbors returns the sorted neighbor codes of code. Unknown codes yield
// an empty slice, indistinguishable from an isolated territory.
func (g *Graph) Neighbors(code string) []string {
	return sortedCodes(g.neighbors[code])
}

// AreAdjacent reports whether a and b share a border. The relation is
// symmetric and irreflexive by construction.
func (g *Graph) AreAdjacent(a, b string) bool {
	return g.neighbors[a][b]
}

// ContractID returns the on-chain territory id for a map code.
func (g *Graph) ContractID(code string) (int, bool) {
	id, ok := g.idByCode[code]
	return id, ok
}

// CodeForID returns the map code for an on-chain territory id.
func (g *Graph) CodeForID(id int) (string, bool) {
	code, ok := g.codeByID[id]
	return code, ok
}

func sortedCodes(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
