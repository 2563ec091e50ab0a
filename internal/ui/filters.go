package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/govalues/decimal"

	"github.com/five82/shelf/internal/inventory"
)

type filtersSubmitMsg struct {
	filters inventory.FilterSet
}

const (
	filterFieldCategory = iota
	filterFieldMinPrice
	filterFieldMaxPrice
	filterFieldInStock
	filterFieldCount
)

// filterModal edits every filter except search.
type filterModal struct {
	category int // index into "" + inventory.Categories
	minPrice textinput.Model
	maxPrice textinput.Model
	inStock  bool
	focus    int
	err      string
}

func newFilterModal(current inventory.FilterSet) *filterModal {
	newPrice := func(value *decimal.Decimal) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = "any"
		ti.CharLimit = 16
		ti.Prompt = ""
		if value != nil {
			ti.SetValue(value.String())
		}
		return ti
	}

	return &filterModal{
		category: categoryIndex(current.Category),
		minPrice: newPrice(current.MinPrice),
		maxPrice: newPrice(current.MaxPrice),
		inStock:  current.InStock,
	}
}

func categoryIndex(name string) int {
	for i, c := range inventory.Categories {
		if c == name {
			return i + 1
		}
	}
	return 0
}

func categoryAt(i int) string {
	if i <= 0 || i > len(inventory.Categories) {
		return ""
	}
	return inventory.Categories[i-1]
}

func (f *filterModal) setFocus(i int) tea.Cmd {
	f.focus = (i + filterFieldCount) % filterFieldCount
	f.minPrice.Blur()
	f.maxPrice.Blur()
	switch f.focus {
	case filterFieldMinPrice:
		return f.minPrice.Focus()
	case filterFieldMaxPrice:
		return f.maxPrice.Focus()
	}
	return nil
}

// filters parses the form. Unparseable prices are reported instead of being
// dropped silently.
func (f *filterModal) filters() (inventory.FilterSet, string) {
	out := inventory.FilterSet{
		Category: categoryAt(f.category),
		InStock:  f.inStock,
	}
	if raw := strings.TrimSpace(f.minPrice.Value()); raw != "" {
		if out.MinPrice = inventory.ParsePrice(raw); out.MinPrice == nil {
			return out, "Min price must be a number of 0 or more"
		}
	}
	if raw := strings.TrimSpace(f.maxPrice.Value()); raw != "" {
		if out.MaxPrice = inventory.ParsePrice(raw); out.MaxPrice == nil {
			return out, "Max price must be a number of 0 or more"
		}
	}
	return out, ""
}

// Update implements Modal.
func (f *filterModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}

	switch {
	case key.Matches(km, keys.Escape):
		return f, nil, true
	case key.Matches(km, keys.Confirm):
		filters, errText := f.filters()
		if errText != "" {
			f.err = errText
			return f, nil, false
		}
		return f, func() tea.Msg { return filtersSubmitMsg{filters: filters} }, true
	case key.Matches(km, keys.Tab):
		return f, f.setFocus(f.focus + 1), false
	case key.Matches(km, keys.ShiftTab):
		return f, f.setFocus(f.focus - 1), false
	}

	switch f.focus {
	case filterFieldCategory:
		n := len(inventory.Categories) + 1
		switch {
		case key.Matches(km, keys.CycleNext), key.Matches(km, keys.Toggle):
			f.category = (f.category + 1) % n
		case key.Matches(km, keys.CyclePrev):
			f.category = (f.category - 1 + n) % n
		}
		return f, nil, false
	case filterFieldInStock:
		if key.Matches(km, keys.Toggle) {
			f.inStock = !f.inStock
		}
		return f, nil, false
	}

	var cmd tea.Cmd
	if f.focus == filterFieldMinPrice {
		f.minPrice, cmd = f.minPrice.Update(km)
	} else {
		f.maxPrice, cmd = f.maxPrice.Update(km)
	}
	f.err = ""
	return f, cmd, false
}

// View implements Modal.
func (f *filterModal) View(theme Theme, width, height int) string {
	styles := theme.Styles().WithBackground(theme.Surface)
	bg := NewBgStyle(theme.Surface)

	label := func(i int, text string) string {
		style := styles.FaintText
		marker := "  "
		if f.focus == i {
			style = styles.AccentText
			marker = "› "
		}
		return bg.Render(marker+padRight(text, 12), style)
	}

	category := categoryAt(f.category)
	if category == "" {
		category = "All categories"
	}
	stock := checkbox(f.inStock) + " in stock only"

	lines := []string{
		label(filterFieldCategory, "Category") + bg.Render("‹ "+category+" ›", styles.Text),
		label(filterFieldMinPrice, "Min price") + f.minPrice.View(),
		label(filterFieldMaxPrice, "Max price") + f.maxPrice.View(),
		label(filterFieldInStock, "Stock") + bg.Render(stock, styles.Text),
	}
	if parsed, errText := f.filters(); errText == "" && parsed.PriceRangeInverted() {
		lines = append(lines, "", bg.Render("Min is above max: the list will be empty", styles.WarningText))
	}
	if f.err != "" {
		lines = append(lines, "", bg.Render(f.err, styles.DangerText))
	}
	lines = append(lines, "",
		bg.Hint("enter", "Apply", styles)+bg.Spaces(2)+
			bg.Hint("tab", "Next", styles)+bg.Spaces(2)+
			bg.Hint("←/→", "Category", styles)+bg.Spaces(2)+
			bg.Hint("esc", "Cancel", styles))

	return placeModal(theme, "Filters", strings.Join(lines, "\n"), 56, width, height)
}
