package layout

// Cell is one slot of a board row. A filler cell has no sprint and renders
// blank.
type Cell struct {
	Sprint *OrderedSprint `json:"sprint,omitempty"`
	Filler bool           `json:"filler,omitempty"`
}

// Grid is the board arrangement: half-width sprints paired two per row, then
// the backlog on its own full-width row.
type Grid struct {
	Rows    [][2]Cell      `json:"rows"`
	Backlog *OrderedSprint `json:"backlog,omitempty"`
}

// BuildGrid arranges ordered sprints into rows. An odd number of half-width
// sprints leaves a filler in the last slot.
func BuildGrid(ordered []OrderedSprint) Grid {
	var g Grid
	var half []*OrderedSprint

	for i := range ordered {
		o := &ordered[i]
		if o.Policy.Width == WidthFull {
			g.Backlog = o
			continue
		}
		half = append(half, o)
	}

	for i := 0; i < len(half); i += 2 {
		row := [2]Cell{{Sprint: half[i]}, {Filler: true}}
		if i+1 < len(half) {
			row[1] = Cell{Sprint: half[i+1]}
		}
		g.Rows = append(g.Rows, row)
	}

	return g
}

// Len returns the number of rendered rows, counting the backlog row.
func (g Grid) Len() int {
	n := len(g.Rows)
	if g.Backlog != nil {
		n++
	}
	return n
}
