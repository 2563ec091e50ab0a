package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/inventory"
)

type productSubmitMsg struct {
	id    string // empty for create
	draft inventory.ProductDraft
}

type formField int

const (
	fieldName formField = iota
	fieldSKU
	fieldCategory
	fieldPrice
	fieldQuantity
	fieldMinStock
	fieldImage
	fieldActive
	fieldCount
)

// fieldKeys maps form fields onto the FieldErrors keys used by validation.
var fieldKeys = map[formField]string{
	fieldName:     "name",
	fieldSKU:      "sku",
	fieldCategory: "category",
	fieldPrice:    "price",
	fieldQuantity: "quantity",
	fieldMinStock: "minStockLevel",
	fieldImage:    "images",
}

var fieldLabels = map[formField]string{
	fieldName:     "Name",
	fieldSKU:      "SKU",
	fieldCategory: "Category",
	fieldPrice:    "Price",
	fieldQuantity: "Quantity",
	fieldMinStock: "Min stock",
	fieldImage:    "Image URL",
	fieldActive:   "Active",
}

// productForm creates a product, or edits one when id is set.
type productForm struct {
	id       string
	inputs   map[formField]*textinput.Model
	category int
	images   []string
	active   bool
	focus    formField

	fieldErrs inventory.FieldErrors
	err       string
	saving    bool
}

func newProductForm(id string, draft inventory.ProductDraft) *productForm {
	f := &productForm{
		id:       id,
		inputs:   make(map[formField]*textinput.Model),
		category: categoryIndex(draft.Category),
		images:   append([]string(nil), draft.Images...),
		active:   draft.IsActive,
	}
	values := map[formField]string{
		fieldName:     draft.Name,
		fieldSKU:      draft.SKU,
		fieldPrice:    draft.Price,
		fieldQuantity: draft.Quantity,
		fieldMinStock: draft.MinStockLevel,
		fieldImage:    "",
	}
	limits := map[formField]int{
		fieldName:     100,
		fieldSKU:      50,
		fieldPrice:    16,
		fieldQuantity: 9,
		fieldMinStock: 9,
		fieldImage:    512,
	}
	for field, value := range values {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = limits[field]
		ti.SetValue(value)
		f.inputs[field] = &ti
	}
	f.inputs[fieldQuantity].Placeholder = "0"
	f.inputs[fieldMinStock].Placeholder = "0"
	f.inputs[fieldImage].Placeholder = "https://..."
	f.setFocus(fieldName)
	return f
}

func (f *productForm) title() string {
	if f.id == "" {
		return "New product"
	}
	return "Edit product"
}

// draft collects the raw form values.
func (f *productForm) draft() inventory.ProductDraft {
	return inventory.ProductDraft{
		Name:          f.inputs[fieldName].Value(),
		SKU:           f.inputs[fieldSKU].Value(),
		Category:      categoryAt(f.category),
		Price:         f.inputs[fieldPrice].Value(),
		Quantity:      f.inputs[fieldQuantity].Value(),
		MinStockLevel: f.inputs[fieldMinStock].Value(),
		Images:        append([]string(nil), f.images...),
		IsActive:      f.active,
	}
}

func (f *productForm) setFocus(field formField) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	for _, in := range f.inputs {
		in.Blur()
	}
	if in, ok := f.inputs[f.focus]; ok {
		return in.Focus()
	}
	return nil
}

// addImage moves the image input into the image list.
func (f *productForm) addImage() {
	in := f.inputs[fieldImage]
	images, err := inventory.AddImage(f.images, in.Value())
	if err != nil {
		f.fieldErrs = withFieldError(f.fieldErrs, "images", err.Error())
		return
	}
	f.images = images
	in.SetValue("")
	delete(f.fieldErrs, "images")
}

// submit validates locally and asks the model to save. Invalid drafts never
// leave the form.
func (f *productForm) submit() tea.Cmd {
	if pending := strings.TrimSpace(f.inputs[fieldImage].Value()); pending != "" {
		f.addImage()
		if f.fieldErrs["images"] != "" {
			return nil
		}
	}
	draft := f.draft()
	if _, errs := draft.Validate(); errs != nil {
		f.fieldErrs = errs
		f.err = "Fix the highlighted fields"
		return nil
	}
	f.fieldErrs = nil
	f.err = ""
	id := f.id
	return func() tea.Msg { return productSubmitMsg{id: id, draft: draft} }
}

// Update implements Modal.
func (f *productForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}
	if f.saving {
		return f, nil, false
	}

	switch {
	case key.Matches(km, keys.Escape):
		return f, nil, true
	case key.Matches(km, keys.Submit):
		return f, f.submit(), false
	case km.String() == "tab", km.String() == "down":
		return f, f.setFocus(f.focus + 1), false
	case km.String() == "shift+tab", km.String() == "up":
		return f, f.setFocus(f.focus - 1), false
	}

	switch f.focus {
	case fieldCategory:
		n := len(inventory.Categories) + 1
		switch {
		case key.Matches(km, keys.CycleNext), key.Matches(km, keys.Toggle):
			f.category = (f.category + 1) % n
		case key.Matches(km, keys.CyclePrev):
			f.category = (f.category - 1 + n) % n
		case key.Matches(km, keys.Confirm):
			return f, f.setFocus(f.focus + 1), false
		}
		delete(f.fieldErrs, "category")
		return f, nil, false

	case fieldActive:
		switch {
		case key.Matches(km, keys.Toggle):
			f.active = !f.active
		case key.Matches(km, keys.Confirm):
			return f, f.submit(), false
		}
		return f, nil, false

	case fieldImage:
		switch {
		case key.Matches(km, keys.Confirm), key.Matches(km, keys.AddImage):
			f.addImage()
			return f, nil, false
		case key.Matches(km, keys.RemoveImage):
			if len(f.images) > 0 {
				f.images = f.images[:len(f.images)-1]
			}
			return f, nil, false
		}
	}

	if key.Matches(km, keys.Confirm) {
		return f, f.setFocus(f.focus + 1), false
	}

	in := f.inputs[f.focus]
	if in == nil {
		return f, nil, false
	}
	updated, cmd := in.Update(km)
	*in = updated
	delete(f.fieldErrs, fieldKeys[f.focus])
	return f, cmd, false
}

// View implements Modal.
func (f *productForm) View(theme Theme, width, height int) string {
	styles := theme.Styles().WithBackground(theme.Surface)
	bg := NewBgStyle(theme.Surface)

	var lines []string
	for field := fieldName; field < fieldCount; field++ {
		style := styles.FaintText
		marker := "  "
		if f.focus == field {
			style = styles.AccentText
			marker = "› "
		}
		line := bg.Render(marker+padRight(fieldLabels[field], 11), style)

		switch field {
		case fieldCategory:
			c := categoryAt(f.category)
			if c == "" {
				c = "choose..."
			}
			line += bg.Render("‹ "+c+" ›", styles.Text)
		case fieldActive:
			line += bg.Render(checkbox(f.active), styles.Text)
		default:
			line += f.inputs[field].View()
		}
		lines = append(lines, line)

		if field == fieldImage {
			for _, img := range f.images {
				lines = append(lines, bg.Spaces(13)+bg.Render("• "+truncateMiddle(img, 44), styles.MutedText))
			}
		}
		if msg := f.fieldErrs[fieldKeys[field]]; msg != "" && fieldKeys[field] != "" {
			lines = append(lines, bg.Spaces(13)+bg.Render(fieldLabels[field]+" "+msg, styles.DangerText))
		}
	}

	lines = append(lines, "")
	switch {
	case f.saving:
		lines = append(lines, bg.Render("Saving...", styles.InfoText))
	case f.err != "":
		lines = append(lines, bg.Render(f.err, styles.DangerText))
	}
	lines = append(lines,
		bg.Hint("ctrl+s", "Save", styles)+bg.Spaces(2)+
			bg.Hint("tab", "Next", styles)+bg.Spaces(2)+
			bg.Hint("ctrl+a", "Add image", styles)+bg.Spaces(2)+
			bg.Hint("esc", "Cancel", styles))

	return placeModal(theme, f.title(), strings.Join(lines, "\n"), 64, width, height)
}

func withFieldError(errs inventory.FieldErrors, field, msg string) inventory.FieldErrors {
	if errs == nil {
		errs = inventory.FieldErrors{}
	}
	errs[field] = msg
	return errs
}
