package worldmap

import "strconv"

// classicTerritories is the fixed 10-territory board used when no border
// dataset is configured. Indexes double as on-chain territory ids.
var classicTerritories = []struct {
	name      string
	neighbors []int
}{
	{"Northland", []int{1, 3, 4}},
	{"Frostheim", []int{0, 2, 4}},
	{"Eastmark", []int{1, 4, 5}},
	{"Westmoor", []int{0, 4, 6}},
	{"Heartland", []int{0, 1, 2, 3, 5, 6, 7}},
	{"Ironcoast", []int{2, 4, 7, 8}},
	{"Shadowvale", []int{3, 4, 7, 9}},
	{"Midlands", []int{4, 5, 6, 8, 9}},
	{"Sunreach", []int{5, 7, 9}},
	{"Darkhollow", []int{6, 7, 8}},
}

// Classic builds the fixed 10-territory graph. Codes are the decimal ids so
// the Graph surface is identical to the world-map variant.
func Classic() *Graph {
	names := make(map[string]string, len(classicTerritories))
	neighbors := make(map[string]map[string]bool, len(classicTerritories))

	for id, t := range classicTerritories {
		code := strconv.Itoa(id)
		names[code] = t.name
		for _, n := range t.neighbors {
			addBorder(neighbors, code, strconv.Itoa(n))
			addBorder(neighbors, strconv.Itoa(n), code)
		}
	}

	g := newGraph(names, neighbors)

	// The classic board addresses territories by index, not by the pinned
	// world-code table.
	g.idByCode = make(map[string]int, len(classicTerritories))
	g.codeByID = make(map[int]string, len(classicTerritories))
	for id := range classicTerritories {
		code := strconv.Itoa(id)
		g.idByCode[code] = id
		g.codeByID[id] = code
	}
	return g
}
