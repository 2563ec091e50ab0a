package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/inventory"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.MustParse(s)
	return &d
}

func TestFilterModal_PrefillsCurrentFilters(t *testing.T) {
	f := newFilterModal(inventory.FilterSet{
		Category: "Books",
		MinPrice: decimalPtr("5"),
		InStock:  true,
	})
	require.Equal(t, "Books", categoryAt(f.category))
	require.Equal(t, "5", f.minPrice.Value())
	require.Equal(t, "", f.maxPrice.Value())
	require.True(t, f.inStock)
}

func TestFilterModal_SubmitInvertedRange(t *testing.T) {
	keys := DefaultKeyMap()
	f := newFilterModal(inventory.FilterSet{})
	f.minPrice.SetValue("50")
	f.maxPrice.SetValue("10")

	_, cmd, closed := f.Update(tea.KeyMsg{Type: tea.KeyEnter}, keys)
	require.True(t, closed)
	require.NotNil(t, cmd)

	msg, ok := cmd().(filtersSubmitMsg)
	require.True(t, ok)
	require.True(t, msg.filters.PriceRangeInverted())
	require.Equal(t, "50", msg.filters.MinPrice.String())
	require.Equal(t, "10", msg.filters.MaxPrice.String())
}

func TestFilterModal_RejectsBadPrice(t *testing.T) {
	keys := DefaultKeyMap()
	f := newFilterModal(inventory.FilterSet{})
	f.minPrice.SetValue("cheap")

	_, cmd, closed := f.Update(tea.KeyMsg{Type: tea.KeyEnter}, keys)
	require.False(t, closed)
	require.Nil(t, cmd)
	require.Contains(t, f.err, "Min price")
}

func TestFilterModal_CategoryCycleAndStockToggle(t *testing.T) {
	keys := DefaultKeyMap()
	f := newFilterModal(inventory.FilterSet{})

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlN}, keys)
	require.Equal(t, inventory.Categories[0], categoryAt(f.category))
	f.Update(tea.KeyMsg{Type: tea.KeyCtrlP}, keys)
	f.Update(tea.KeyMsg{Type: tea.KeyCtrlP}, keys)
	require.Equal(t, inventory.Categories[len(inventory.Categories)-1], categoryAt(f.category))

	f.setFocus(filterFieldInStock)
	f.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, keys)
	require.True(t, f.inStock)

	filters, errText := f.filters()
	require.Empty(t, errText)
	require.Equal(t, "Other", filters.Category)
	require.True(t, filters.InStock)
}

func TestProductForm_LocalValidationBlocksSubmit(t *testing.T) {
	keys := DefaultKeyMap()
	f := newProductForm("", inventory.ProductDraft{
		Name: "Desk lamp", SKU: "ab", Category: "Home", Price: "12.50", Quantity: "3", MinStockLevel: "1", IsActive: true,
	})

	_, cmd, closed := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS}, keys)
	require.False(t, closed)
	require.Nil(t, cmd)
	require.Contains(t, f.fieldErrs, "sku")
	require.NotEmpty(t, f.err)
}

func TestProductForm_SubmitValidDraft(t *testing.T) {
	keys := DefaultKeyMap()
	f := newProductForm("p01", inventory.ProductDraft{
		Name: "Desk lamp", SKU: "lamp-1", Category: "Home", Price: "12.50", Quantity: "3", MinStockLevel: "1", IsActive: true,
	})
	f.inputs[fieldImage].SetValue("https://img.example.com/lamp.png")

	_, cmd, _ := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS}, keys)
	require.NotNil(t, cmd)

	msg, ok := cmd().(productSubmitMsg)
	require.True(t, ok)
	require.Equal(t, "p01", msg.id)
	require.Equal(t, "Desk lamp", msg.draft.Name)
	require.Equal(t, []string{"https://img.example.com/lamp.png"}, msg.draft.Images)
	require.Empty(t, f.fieldErrs)
}

func TestProductForm_TypingClearsFieldError(t *testing.T) {
	keys := DefaultKeyMap()
	f := newProductForm("", inventory.ProductDraft{})
	f.fieldErrs = inventory.FieldErrors{"name": "is required"}

	f.Update(keyRunes("L"), keys)
	require.Equal(t, "L", f.inputs[fieldName].Value())
	require.NotContains(t, f.fieldErrs, "name")
}

func TestConfirmDelete(t *testing.T) {
	keys := DefaultKeyMap()
	p := inventory.Product{ID: "p07", Name: "Kettle"}

	_, cmd, closed := newConfirmDelete(p).Update(keyRunes("y"), keys)
	require.True(t, closed)
	require.Equal(t, deleteConfirmedMsg{id: "p07", name: "Kettle"}, cmd())

	_, cmd, closed = newConfirmDelete(p).Update(keyRunes("n"), keys)
	require.True(t, closed)
	require.Nil(t, cmd)

	_, _, closed = newConfirmDelete(p).Update(keyRunes("x"), keys)
	require.False(t, closed)
}

func TestBridge_DropsWhenFull(t *testing.T) {
	b := NewBridge(1)
	b.SyncNotify(browse.Event{Key: inventory.QueryKey{Page: 1}})
	b.SyncNotify(browse.Event{Key: inventory.QueryKey{Page: 2}})
	require.Equal(t, uint64(1), b.Dropped())

	msg := b.wait(context.Background())()
	ev, ok := msg.(syncMsg)
	require.True(t, ok)
	require.Equal(t, 1, ev.Key.Page)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Nil(t, b.wait(ctx)())
}
