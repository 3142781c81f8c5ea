package worldmap

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
)

// mapCodePattern matches the two-letter territory ids carried by the drawable
// paths of the world SVG.
var mapCodePattern = regexp.MustCompile(`id="([A-Z]{2})"`)

// ExtractMapCodes scans SVG markup for two-letter territory ids and returns
// the set of drawable codes. Only codes in this set may enter a Graph built
// from the border dataset.
func ExtractMapCodes(svg string) map[string]bool {
	codes := make(map[string]bool)
	for _, m := range mapCodePattern.FindAllStringSubmatch(svg, -1) {
		codes[m[1]] = true
	}
	return codes
}

// FromBorders builds a Graph from the GeoDataSource border CSV, keeping only
// rows whose both sides appear in allowed. Each kept row registers both codes
// and inserts the border symmetrically. Malformed rows are skipped; empty or
// header-only input yields an empty graph.
//
// CSV layout: country_code, country_name, country_border_code,
// country_border_name. Rows with an empty border code register the country
// without any edge.
func FromBorders(data string, allowed map[string]bool) *Graph {
	names := make(map[string]string)
	neighbors := make(map[string]map[string]bool)

	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 4 {
			continue
		}

		code := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		borderCode := strings.TrimSpace(rec[2])
		borderName := strings.TrimSpace(rec[3])

		if code == "" || !allowed[code] {
			continue
		}
		setName(names, code, name)

		if borderCode == "" || !allowed[borderCode] {
			continue
		}
		setName(names, borderCode, borderName)
		addBorder(neighbors, code, borderCode)
		addBorder(neighbors, borderCode, code)
	}

	return newGraph(names, neighbors)
}

// setName records the first name seen for a code.
func setName(names map[string]string, code, name string) {
	if _, ok := names[code]; ok {
		return
	}
	if name == "" {
		name = code
	}
	names[code] = name
}

func addBorder(neighbors map[string]map[string]bool, from, to string) {
	if from == to {
		return
	}
	set, ok := neighbors[from]
	if !ok {
		set = make(map[string]bool)
		neighbors[from] = set
	}
	set[to] = true
}
