package layout

// InitialColumns is the column count before the first width observation.
const InitialColumns = 1

// Breakpoints are viewport widths, in pixels, where the column count changes.
type Breakpoints struct {
	Narrow int // width <= Narrow: 2 columns
	Medium int // Narrow < width < Medium: 4 columns
	Wide   int // Medium <= width < Wide: 5 columns
}

// DefaultBreakpoints mirror common tablet/laptop/desktop widths.
var DefaultBreakpoints = Breakpoints{Narrow: 768, Medium: 1024, Wide: 1440}

// ColumnsForWidth maps a viewport width to a column count.
//
// Widths at or above Wide keep the current count unchanged. Nothing assigns
// a value there, so a session that starts wide stays at InitialColumns.
func (b Breakpoints) ColumnsForWidth(width, current int) int {
	switch {
	case width <= b.Narrow:
		return 2
	case width < b.Medium:
		return 4
	case width < b.Wide:
		return 5
	}
	return current
}

// ColumnsForWidth uses DefaultBreakpoints.
func ColumnsForWidth(width, current int) int {
	return DefaultBreakpoints.ColumnsForWidth(width, current)
}
