package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending lipgloss.TerminalColor
	Border                                        lipgloss.Border
	BorderColor                                   lipgloss.TerminalColor
	SymOK, SymFail, SymDot                        string
	Tiles                                         bool // paint tiles with their own colour
}

var current = themeFor("classic")

// SetTheme switches the palette. Unknown names fall back to classic.
func SetTheme(name string) {
	current = themeFor(name)
}

func themeFor(name string) Theme {
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:  "neon",
			Title: lipgloss.Color("201"), Muted: lipgloss.Color("245"), Accent: lipgloss.Color("51"),
			Success: lipgloss.Color("46"), Error: lipgloss.Color("196"), Pending: lipgloss.Color("226"),
			Border: lipgloss.RoundedBorder(), BorderColor: lipgloss.Color("201"),
			SymOK: "✔", SymFail: "✖", SymDot: "•",
			Tiles: true,
		}
	case "mono":
		none := lipgloss.NoColor{}
		return Theme{
			Name:  "mono",
			Title: none, Muted: none, Accent: none, Success: none, Error: none, Pending: none,
			Border: lipgloss.NormalBorder(), BorderColor: none,
			SymOK: "x", SymFail: "!", SymDot: "-",
		}
	default: // classic
		return Theme{
			Name:  "classic",
			Title: lipgloss.NoColor{}, Muted: lipgloss.Color("8"), Accent: lipgloss.Color("12"),
			Success: lipgloss.Color("42"), Error: lipgloss.Color("9"), Pending: lipgloss.Color("214"),
			Border: lipgloss.RoundedBorder(), BorderColor: lipgloss.Color("8"),
			SymOK: "✔", SymFail: "✖", SymDot: "•",
			Tiles: true,
		}
	}
}

// Current exposes what renderers need.
func Current() Theme { return current }

func (t Theme) TitleStyle() lipgloss.Style   { return lipgloss.NewStyle().Bold(true).Foreground(t.Title) }
func (t Theme) MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Faint(true).Foreground(t.Muted) }
func (t Theme) AccentStyle() lipgloss.Style  { return lipgloss.NewStyle().Foreground(t.Accent) }
func (t Theme) SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(t.Success) }
func (t Theme) PendingStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(t.Pending) }
func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}
