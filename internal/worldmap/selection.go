package worldmap

// Selection tracks the two-step source/target pick used to stage an attack.
// It is a pure state machine over the graph; callers own any locking.
type Selection struct {
	graph    *Graph
	selected string
	target   string
}

// NewSelection returns an empty selection over g.
func NewSelection(g *Graph) *Selection {
	return &Selection{graph: g}
}

// Click applies one territory click.
//
// With nothing selected the clicked territory becomes the selection. Clicking
// the selected territory again clears everything. Clicking a neighbor of the
// selection makes it the target, but only when both territories map to
// contract ids; any other click replaces the selection and drops the target.
func (s *Selection) Click(code string) {
	switch {
	case s.selected == "":
		s.selected = code
	case s.selected == code:
		s.selected = ""
		s.target = ""
	case s.graph.AreAdjacent(s.selected, code) && s.bothOnContract(code):
		s.target = code
	default:
		s.selected = code
		s.target = ""
	}
}

func (s *Selection) bothOnContract(code string) bool {
	_, okSel := s.graph.ContractID(s.selected)
	_, okTgt := s.graph.ContractID(code)
	return okSel && okTgt
}

// Selected returns the selected territory code, if any.
func (s *Selection) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// Target returns the staged target code, if any.
func (s *Selection) Target() (string, bool) {
	return s.target, s.target != ""
}

// Clear resets the selection.
func (s *Selection) Clear() {
	s.selected = ""
	s.target = ""
}
