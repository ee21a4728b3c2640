package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/idilsaglam/waterfall/internal/layout"
	"github.com/idilsaglam/waterfall/internal/model"
)

// Geometry maps item pixels onto terminal cells.
type Geometry struct {
	Width      int // terminal columns available for the grid
	CellHeight int // pixels per terminal row
	Gap        int // blank cells between columns and between tiles
}

// ColumnWidth splits the available width between n columns.
func (g Geometry) ColumnWidth(n int) int {
	if n < 1 {
		n = 1
	}
	w := (g.Width - g.Gap*(n-1)) / n
	return max(w, 3)
}

// Rows is the number of terminal rows a tile of height px occupies.
func (g Geometry) Rows(px int) int {
	if g.CellHeight < 1 {
		return max(px, 1)
	}
	return max(px/g.CellHeight, 1)
}

// Tile paints one item as a solid block labelled with its id.
func Tile(it model.Item, width, rows int) string {
	t := Current()
	st := lipgloss.NewStyle().
		Width(width).
		Height(rows).
		Align(lipgloss.Center, lipgloss.Center)
	if t.Tiles && it.Color != "" {
		st = st.Background(lipgloss.Color(it.Color)).Foreground(textOn(it.Color))
	} else {
		st = st.Border(lipgloss.NormalBorder(), false, false, false, true).
			Width(width - 1)
	}
	return st.Render(strconv.Itoa(it.ID))
}

// textOn picks black or white for legibility on a hex background.
func textOn(hex string) lipgloss.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return lipgloss.Color("15")
	}
	if 0.299*c.R+0.587*c.G+0.114*c.B > 0.6 {
		return lipgloss.Color("0")
	}
	return lipgloss.Color("15")
}

// Columns renders the distributed columns side by side.
func Columns(cols []layout.Column, g Geometry) string {
	if len(cols) == 0 {
		return ""
	}
	width := g.ColumnWidth(len(cols))
	blank := lipgloss.NewStyle().Width(width).Render("")

	rendered := make([]string, 0, 2*len(cols)-1)
	for i, c := range cols {
		if i > 0 && g.Gap > 0 {
			rendered = append(rendered, lipgloss.NewStyle().Width(g.Gap).Render(""))
		}
		parts := make([]string, 0, 2*len(c.Items))
		for j, it := range c.Items {
			if j > 0 && g.Gap > 0 {
				parts = append(parts, blank)
			}
			parts = append(parts, Tile(it, width, g.Rows(it.Height)))
		}
		if len(parts) == 0 {
			parts = append(parts, blank)
		}
		rendered = append(rendered, lipgloss.JoinVertical(lipgloss.Left, parts...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
