package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// placeModal frames body in a bordered box and centers it on screen.
func placeModal(theme Theme, title, body string, boxWidth, width, height int) string {
	styles := theme.Styles().WithBackground(theme.Surface)
	header := styles.AccentText.Bold(true).Render(title)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		BorderBackground(lipgloss.Color(theme.Surface)).
		Background(lipgloss.Color(theme.Surface)).
		Padding(1, 2).
		Width(boxWidth).
		Render(header + "\n\n" + body)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(lipgloss.Color(theme.Background)),
	)
}
