package tui

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// Form fields, in focus order.
const (
	fieldName = iota
	fieldPrice
	fieldQuantity
	fieldCount
)

// form edits a new or existing item. id is model.UnassignedID for a new one.
type form struct {
	id     int64
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newForm() form {
	var f form

	placeholders := [fieldCount]string{"Item name", "Price", "Quantity in stock"}
	prompts := [fieldCount]string{"Name     ", "Price    ", "Quantity "}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = mutedStyle.Render(prompts[i])
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 120
		f.inputs[i] = ti
	}
	f.inputs[fieldPrice].CharLimit = 20
	f.inputs[fieldQuantity].CharLimit = 10

	f.setFocus(fieldName)
	return f
}

// editForm is a form filled with item's current values.
func editForm(item model.Item) form {
	f := newForm()
	f.id = item.ID
	f.inputs[fieldName].SetValue(item.Name)
	f.inputs[fieldPrice].SetValue(strconv.FormatFloat(item.Price, 'f', 2, 64))
	f.inputs[fieldQuantity].SetValue(strconv.Itoa(item.Quantity))
	return f
}

func (f form) editing() bool {
	return f.id != model.UnassignedID
}

func (f form) values() (name, price, quantity string) {
	return f.inputs[fieldName].Value(), f.inputs[fieldPrice].Value(), f.inputs[fieldQuantity].Value()
}

func (f *form) setFocus(i int) {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// update feeds a message to the focused input.
func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// submit validates the form and hands it to inv. It reports whether the
// write was queued; otherwise f.err says why not.
func (f *form) submit(inv Inventory) bool {
	name, price, quantity := f.values()
	if !inv.IsEntryValid(name, price, quantity) {
		f.err = "every field needs a value"
		return false
	}

	var err error
	if f.editing() {
		err = inv.UpdateItem(f.id, name, price, quantity)
	} else {
		err = inv.AddNewItem(name, price, quantity)
	}

	switch {
	case err == nil:
		f.err = ""
		return true
	case errors.Is(err, model.ErrInvalidPrice):
		f.setFocus(fieldPrice)
		f.err = model.ErrInvalidPrice.Error()
	case errors.Is(err, model.ErrInvalidQuantity):
		f.setFocus(fieldQuantity)
		f.err = model.ErrInvalidQuantity.Error()
	default:
		f.err = err.Error()
	}
	return false
}

func (f form) view() string {
	title := "Add item"
	if f.editing() {
		title = "Edit item"
	}

	out := titleStyle.Render(title) + "\n\n"
	for i := range f.inputs {
		out += f.inputs[i].View() + "\n"
	}
	if f.err != "" {
		out += "\n" + errorStyle.Render(f.err) + "\n"
	}
	out += "\n" + helpStyle.Render("tab next field • enter save • esc cancel")
	return out
}
