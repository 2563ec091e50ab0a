package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/inventory"
)

type deleteConfirmedMsg struct {
	id   string
	name string
}

// confirmDelete asks before a product is deleted.
type confirmDelete struct {
	product inventory.Product
}

func newConfirmDelete(p inventory.Product) *confirmDelete {
	return &confirmDelete{product: p}
}

// Update implements Modal.
func (c *confirmDelete) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.ConfirmYes):
		id, name := c.product.ID, c.product.Name
		return c, func() tea.Msg { return deleteConfirmedMsg{id: id, name: name} }, true
	case key.Matches(km, keys.ConfirmNo):
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c *confirmDelete) View(theme Theme, width, height int) string {
	styles := theme.Styles().WithBackground(theme.Surface)
	bg := NewBgStyle(theme.Surface)

	body := bg.Render("Delete ", styles.Text) +
		bg.Render(truncate(c.product.Name, 32), styles.Text.Bold(true)) +
		bg.Render(" ("+c.product.SKU+")?", styles.MutedText) + "\n" +
		bg.Render("This cannot be undone.", styles.WarningText) + "\n\n" +
		bg.Hint("y", "Delete", styles) + bg.Spaces(2) + bg.Hint("n/esc", "Keep", styles)

	return placeModal(theme, "Delete product", body, 52, width, height)
}
