package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/inventory"
)

// handleProductsKey processes keyboard input for the products view.
func (m Model) handleProductsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.browse.view.List.Products)

	switch {
	case key.Matches(msg, m.keys.Search):
		return m, m.focusSearch()

	case key.Matches(msg, m.keys.ClearSearch):
		if m.sync != nil {
			m.sync.ClearSearch()
		}
		return m, nil

	case key.Matches(msg, m.keys.Filters):
		m.modal = newFilterModal(m.browse.state.Filters)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.cache != nil {
			m.cache.InvalidateList()
		}
		if m.sync != nil {
			m.sync.Refresh()
		}
		m.preview = previewState{}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.sync != nil {
			m.sync.PageRequested(m.browse.state.Page + 1)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.sync != nil && m.browse.state.Page > 1 {
			m.sync.PageRequested(m.browse.state.Page - 1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Create):
		m.modal = newProductForm("", inventory.ProductDraft{IsActive: true})
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		p, ok := m.selectedProduct()
		if !ok {
			return m, nil
		}
		if m.preview.id == p.ID && m.preview.has {
			p = m.preview.product
		}
		m.modal = newProductForm(p.ID, inventory.DraftFrom(p))
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		p, ok := m.selectedProduct()
		if !ok {
			return m, nil
		}
		m.modal = newConfirmDelete(p)
		return m, nil
	}

	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.browse.selected < count-1 {
			m.browse.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.browse.selected > 0 {
			m.browse.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.browse.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.browse.selected = count - 1
	default:
		return m, nil
	}
	return m, m.previewSelected()
}

// focusSearch moves keyboard focus to the search input.
func (m *Model) focusSearch() tea.Cmd {
	m.searchFocused = true
	return m.searchInput.Focus()
}

// handleSearchKey feeds keystrokes to the search input. Every change goes to
// the Synchronizer, which debounces the commit.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "tab":
		m.searchFocused = false
		m.searchInput.Blur()
		return m, nil
	case "ctrl+l":
		if m.sync != nil {
			m.sync.ClearSearch()
		}
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before && m.sync != nil {
		m.sync.SearchTextChanged(after)
		m.browse.state.SearchText = after
	}
	return m, cmd
}

func (m Model) submitProduct(msg productSubmitMsg) (tea.Model, tea.Cmd) {
	if m.coord == nil {
		return m, nil
	}
	if form, ok := m.modal.(*productForm); ok {
		form.saving = true
		form.err = ""
	}
	if msg.id == "" {
		return m, createCmd(m.ctx, m.coord, msg.draft)
	}
	return m, updateCmd(m.ctx, m.coord, msg.id, msg.draft)
}

func (m Model) submitDelete(msg deleteConfirmedMsg) (tea.Model, tea.Cmd) {
	m.modal = nil
	if m.coord == nil {
		return m, nil
	}
	m.setFlash("Deleting "+msg.name+"...", false)
	return m, deleteCmd(m.ctx, m.coord, msg.id)
}

// handleMutation closes the form on success and keeps it open with field
// messages on failure.
func (m Model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		if _, ok := m.modal.(*productForm); ok {
			m.modal = nil
		}
		name := msg.product.Name
		if name == "" {
			name = "Product"
		}
		m.setFlash(fmt.Sprintf("%s %s", name, msg.op), false)
		if msg.op == opDelete && m.preview.id == msg.id {
			m.preview = previewState{}
		}
		m.syncView()
		return m, m.previewSelected()
	}

	if errors.Is(msg.err, inventory.ErrUnauthorized) {
		m.toLogin("Session expired, sign in again")
		return m, nil
	}
	if errors.Is(msg.err, browse.ErrMutationPending) {
		m.setFlash(msg.err.Error(), true)
		return m, nil
	}

	m.log.Warn("mutation failed", zap.Stringer("op", msg.op), zap.String("id", msg.id), zap.Error(msg.err))
	if form, ok := m.modal.(*productForm); ok {
		form.saving = false
		var fe inventory.FieldErrors
		if errors.As(msg.err, &fe) {
			form.fieldErrs = fe
			form.err = "Fix the highlighted fields"
		} else {
			form.err = describeError(msg.err)
		}
		return m, nil
	}
	m.setFlash(describeError(msg.err), true)
	return m, nil
}

// renderProducts renders the list view with split layout (table + preview).
func (m Model) renderProducts() string {
	contentHeight := m.height - 3 // header, command bar, status line

	var tableWidth int
	if m.width >= 160 {
		tableWidth = m.width * 55 / 100
	} else {
		tableWidth = m.width * 60 / 100
	}
	previewWidth := m.width - tableWidth

	tableBg := m.theme.FocusBg
	tableContent := m.renderSearchLine(tableWidth-2, tableBg) + "\n" +
		m.renderProductTable(tableWidth-2, contentHeight-3, tableBg)
	tablePane := m.renderTitledBox(m.productsTitle(), tableContent, tableWidth, contentHeight, true)

	previewContent := m.renderPreview(previewWidth-4, m.theme.SurfaceAlt)
	previewPane := m.renderTitledBox("Details", previewContent, previewWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, previewPane) + "\n" + m.renderStatusLine()
}

func (m Model) productsTitle() string {
	p := m.browse.view.List.Pagination
	switch {
	case m.browse.view.Loading:
		return "Products (loading)"
	case !m.browse.view.HasData:
		return "Products"
	case p.Pages == 0:
		return "Products (none)"
	default:
		return fmt.Sprintf("Products %d/%d", p.Page, p.Pages)
	}
}

// renderSearchLine shows the search input, or the committed search and
// active filters when the input is not focused.
func (m Model) renderSearchLine(width int, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	if m.searchFocused {
		return bg.FillLine(m.searchInput.View(), width)
	}

	var parts []string
	if text := m.browse.state.SearchText; text != "" {
		label := "/" + text
		if m.sync != nil && m.sync.PendingCommit() {
			label += " …"
		}
		parts = append(parts, bg.Render(truncate(label, 30), styles.AccentText))
	} else {
		parts = append(parts, bg.Render("/ to search", styles.FaintText))
	}
	if summary := filterSummary(m.browse.state.Filters); summary != "" {
		style := styles.MutedText
		if m.browse.state.Filters.PriceRangeInverted() {
			style = styles.WarningText
		}
		parts = append(parts, bg.Render(summary, style))
	}
	return bg.FillLine(bg.Join(parts, "  "), width)
}

// renderProductTable renders the current page as styled rows.
func (m Model) renderProductTable(width, height int, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	view := m.browse.view

	switch {
	case view.Loading:
		return bg.FillLine(bg.Render("Loading products...", styles.MutedText), width)
	case !view.HasData && view.Err != nil:
		return bg.FillLine(bg.Render(describeError(view.Err), styles.DangerText), width) + "\n" +
			bg.FillLine(bg.Render("Press r to retry", styles.FaintText), width)
	case len(view.List.Products) == 0:
		if view.HasData {
			return bg.FillLine(bg.Render("No products match", styles.MutedText), width)
		}
		return ""
	}

	lines := make([]string, 0, len(view.List.Products))
	for i, p := range view.List.Products {
		if i >= height {
			break
		}
		if i == m.browse.selected {
			lines = append(lines, lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.SelectionBg)).
				Width(width).
				Render(m.formatProductRow(p, width, m.theme.SelectionBg, true)))
			continue
		}
		lines = append(lines, bg.FillLine(m.formatProductRow(p, width, bgColor, false), width))
	}
	return strings.Join(lines, "\n")
}

// formatProductRow formats one product: "SKU  Name · Category  $Price  Qty".
func (m Model) formatProductRow(p inventory.Product, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)

	sku := padRight(truncate(p.SKU, 12), 12)
	price := fmt.Sprintf("%10s", formatPrice(p))
	qty := fmt.Sprintf("%5d", p.Quantity)
	nameWidth := max(width-len(sku)-len(price)-len(qty)-4, 8)
	name := padRight(truncate(p.Name, nameWidth), nameWidth)

	var skuStyle, nameStyle, priceStyle, qtyStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		skuStyle, nameStyle, priceStyle, qtyStyle = sel, sel, sel, sel
	} else {
		styles := m.theme.Styles()
		skuStyle = styles.MutedText
		nameStyle = styles.Text
		if !p.IsActive {
			nameStyle = styles.FaintText
		}
		priceStyle = styles.Text
		qtyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StockColor(p.StockStatus())))
	}

	return bg.Render(sku, skuStyle) + bg.Space() +
		bg.Render(name, nameStyle) + bg.Space() +
		bg.Render(price, priceStyle) + bg.Space() +
		bg.Render(qty, qtyStyle)
}

// renderPreview renders the detail pane for the highlighted product.
func (m Model) renderPreview(width int, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	if !m.preview.has {
		if m.preview.err != nil {
			return bg.Render(describeError(m.preview.err), styles.DangerText)
		}
		return bg.Render("Select a product", styles.MutedText)
	}
	p := m.preview.product

	row := func(label, value string, style lipgloss.Style) string {
		return bg.Render(padRight(label, 10), styles.FaintText) + bg.Render(truncate(value, max(width-10, 4)), style)
	}

	lines := []string{
		bg.Render(truncate(p.Name, width), styles.Text.Bold(true)),
		"",
		row("SKU", p.SKU, styles.AccentText),
		row("Category", p.Category, styles.Text),
		row("Price", formatPrice(p), styles.Text),
		row("Quantity", fmt.Sprintf("%d (min %d)", p.Quantity, p.MinStockLevel), styles.Text),
		bg.Render(padRight("Stock", 10), styles.FaintText) + bg.Render(string(p.StockStatus()), styles.StockBadge(p.StockStatus())),
		row("Active", yesNo(p.IsActive), styles.Text),
	}
	if t := p.ParsedUpdatedAt(); !t.IsZero() {
		lines = append(lines, row("Updated", t.Local().Format("2006-01-02 15:04"), styles.MutedText))
	}
	if len(p.Images) > 0 {
		lines = append(lines, "", bg.Render("Images", styles.FaintText))
		for _, img := range p.Images {
			lines = append(lines, bg.Render("  "+truncateMiddle(img, width-2), styles.MutedText))
		}
	}
	if m.preview.loading {
		lines = append(lines, "", bg.Render("refreshing...", styles.FaintText))
	} else if m.preview.err != nil {
		lines = append(lines, "", bg.Render(describeError(m.preview.err), styles.DangerText))
	}
	return strings.Join(lines, "\n")
}

// renderStatusLine renders the line under the panes: totals, freshness and
// the latest flash or fetch error.
func (m Model) renderStatusLine() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles()
	view := m.browse.view

	var parts []string
	if view.HasData {
		parts = append(parts, bg.Render(fmt.Sprintf("%d products", view.List.Pagination.Total), styles.MutedText))
		parts = append(parts, bg.Render("updated "+view.FetchedAt.Local().Format("15:04:05"), styles.FaintText))
	}
	switch {
	case view.Refreshing:
		parts = append(parts, bg.Render("refreshing", styles.InfoText))
	case view.Stale:
		parts = append(parts, bg.Render("stale", styles.WarningText))
	}
	if m.coord != nil && m.coord.Pending() {
		parts = append(parts, bg.Render("saving", styles.InfoText))
	}
	if view.HasData && view.Err != nil {
		parts = append(parts, bg.Render(describeError(view.Err), styles.DangerText))
	}
	if m.flash.text != "" {
		style := styles.SuccessText
		if m.flash.isErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(m.flash.text, style))
	}

	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.FillLine(strings.Join(parts, sep), m.width)
}

// filterSummary renders the non-search filters for the search line.
func filterSummary(f inventory.FilterSet) string {
	var parts []string
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	switch {
	case f.MinPrice != nil && f.MaxPrice != nil:
		parts = append(parts, fmt.Sprintf("price %s–%s", f.MinPrice, f.MaxPrice))
	case f.MinPrice != nil:
		parts = append(parts, fmt.Sprintf("price ≥ %s", f.MinPrice))
	case f.MaxPrice != nil:
		parts = append(parts, fmt.Sprintf("price ≤ %s", f.MaxPrice))
	}
	if f.InStock {
		parts = append(parts, "in stock")
	}
	if f.PriceRangeInverted() {
		parts = append(parts, "(min > max)")
	}
	return strings.Join(parts, " · ")
}

// describeError turns an error into one line for the status bar. Server
// messages are shown verbatim.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *inventory.APIError
	switch {
	case inventory.Classify(err) == inventory.KindTransport:
		return "Backend " + classifyConnectionError(err)
	case errors.As(err, &apiErr):
		return apiErr.Error()
	default:
		return err.Error()
	}
}
