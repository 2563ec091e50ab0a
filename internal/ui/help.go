package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// helpTitles names the columns of keyMap.FullHelp, in order.
var helpTitles = []string{"Views", "Navigate", "Browse", "Products", "General"}

// renderHelp renders the help overlay from the key bindings themselves.
func (m Model) renderHelp() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	keyStyle := styles.WarningText

	var b strings.Builder
	for i, group := range m.keys.FullHelp() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		title := "More"
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		b.WriteString(bg.Render(title, styles.AccentText.Bold(true)))
		for _, binding := range enabled(group) {
			h := binding.Help()
			b.WriteString("\n")
			b.WriteString(bg.Render(padRight(h.Key, 12), keyStyle))
			b.WriteString(bg.Render(h.Desc, styles.Text))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(bg.Render("In forms: tab moves, ctrl+s saves, esc cancels", styles.FaintText))

	return placeModal(m.theme, "Keyboard shortcuts", b.String(), 52, m.width, m.height)
}

func enabled(bindings []key.Binding) []key.Binding {
	out := bindings[:0:0]
	for _, b := range bindings {
		if b.Enabled() {
			out = append(out, b)
		}
	}
	return out
}
