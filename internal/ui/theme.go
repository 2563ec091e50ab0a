package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/inventory"
)

// Theme is a named palette. Every color is a hex string.
type Theme struct {
	Name string

	Background, Surface, SurfaceAlt, FocusBg string
	SelectionBg, SelectionText               string
	Border, BorderFocus                      string

	Text, Muted, Faint, Accent     string
	Success, Warning, Danger, Info string

	// StockColors is keyed by inventory.StockStatus.
	StockColors map[inventory.StockStatus]string
}

// Styles holds the foreground styles views render text with.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style

	stockColors map[inventory.StockStatus]string
	background  string
	muted       string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles builds the lipgloss styles for t.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header: fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:   fg(t.Accent).Bold(true),

		stockColors: t.StockColors,
		background:  t.Background,
		muted:       t.Muted,
	}
}

// WithBackground puts every style on bgColor, for text drawn inside a
// filled area such as a modal.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

// StockBadge is a filled label for a stock status.
func (s Styles) StockBadge(status inventory.StockStatus) lipgloss.Style {
	color, ok := s.stockColors[status]
	if !ok {
		color = s.muted
	}
	return fg(s.background).Background(lipgloss.Color(color)).Padding(0, 1)
}

// StockColor returns the foreground color for a stock status.
func (t Theme) StockColor(status inventory.StockStatus) string {
	if c, ok := t.StockColors[status]; ok {
		return c
	}
	return t.Muted
}

// LevelColor returns the color used for a log level in the activity view.
func (t Theme) LevelColor(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return t.Info
	case "info":
		return t.Success
	case "warn", "warning":
		return t.Warning
	case "error", "dpanic", "panic", "fatal":
		return t.Danger
	default:
		return t.Muted
	}
}

var themeOrder = []Theme{nightfox, kanagawa, gruvbox}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	for _, t := range themeOrder {
		if t.Name == name {
			return t
		}
	}
	return nightfox
}

// NextTheme returns the theme after current, wrapping around.
func NextTheme(current string) string {
	for i, t := range themeOrder {
		if t.Name == current {
			return themeOrder[(i+1)%len(themeOrder)].Name
		}
	}
	return themeOrder[0].Name
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeOrder))
	for i, t := range themeOrder {
		names[i] = t.Name
	}
	return names
}

// https://github.com/EdenEast/nightfox.nvim
var nightfox = Theme{
	Name:       "Nightfox",
	Background: "#131a24", Surface: "#192330", SurfaceAlt: "#212e3f", FocusBg: "#29394f",
	SelectionBg: "#2b3b51", SelectionText: "#cdcecf",
	Border: "#39506d", BorderFocus: "#719cd6",
	Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
	Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d", Info: "#63cdcf",
	StockColors: map[inventory.StockStatus]string{
		inventory.StockIn: "#81b29a", inventory.StockLow: "#f4a261", inventory.StockOut: "#c94f6d",
	},
}

// https://github.com/rebelot/kanagawa.nvim
var kanagawa = Theme{
	Name:       "Kanagawa",
	Background: "#16161D", Surface: "#1F1F28", SurfaceAlt: "#2A2A37", FocusBg: "#363646",
	SelectionBg: "#2D4F67", SelectionText: "#DCD7BA",
	Border: "#54546D", BorderFocus: "#7E9CD8",
	Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169", Accent: "#7E9CD8",
	Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876", Info: "#7FB4CA",
	StockColors: map[inventory.StockStatus]string{
		inventory.StockIn: "#98BB6C", inventory.StockLow: "#FFA066", inventory.StockOut: "#E46876",
	},
}

// https://github.com/morhetz/gruvbox
var gruvbox = Theme{
	Name:       "Gruvbox",
	Background: "#1d2021", Surface: "#282828", SurfaceAlt: "#32302f", FocusBg: "#3c3836",
	SelectionBg: "#504945", SelectionText: "#fbf1c7",
	Border: "#665c54", BorderFocus: "#83a598",
	Text: "#ebdbb2", Muted: "#a89984", Faint: "#928374", Accent: "#83a598",
	Success: "#b8bb26", Warning: "#fabd2f", Danger: "#fb4934", Info: "#8ec07c",
	StockColors: map[inventory.StockStatus]string{
		inventory.StockIn: "#b8bb26", inventory.StockLow: "#fe8019", inventory.StockOut: "#fb4934",
	},
}
