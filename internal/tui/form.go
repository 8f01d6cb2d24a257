package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contactbook/internal/contact"
)

// fieldCharLimit caps the length of a single form field.
const fieldCharLimit = 256

// formState manages the four text inputs of the add/edit form.
type formState struct {
	title  string
	id     string // ID of the contact being edited; empty when adding
	inputs []textinput.Model
	focus  int
	err    string
}

// newForm returns a form prefilled with c and focus on the first field.
func newForm(title, id string, c contact.Contact) formState {
	inputs := make([]textinput.Model, len(contact.Fields))
	for i, f := range contact.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Title()
		ti.CharLimit = fieldCharLimit
		ti.Width = 40
		ti.SetValue(c.Value(f))
		inputs[i] = ti
	}
	inputs[0].Focus()
	return formState{title: title, id: id, inputs: inputs}
}

// Contact returns the contact described by the current input values.
func (fs formState) Contact() contact.Contact {
	return contact.Contact{
		Name:    fs.inputs[0].Value(),
		Phone:   fs.inputs[1].Value(),
		Email:   fs.inputs[2].Value(),
		Address: fs.inputs[3].Value(),
	}
}

// Update processes key messages for the form. Enter submits, Esc cancels,
// Tab and the arrow keys move between fields; everything else goes to the
// focused input.
func (fs formState) Update(msg tea.Msg) (formState, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			submit := FormSubmitMsg{ID: fs.id, Contact: fs.Contact()}
			return fs, func() tea.Msg { return submit }
		case "esc":
			return fs, func() tea.Msg { return FormCancelMsg{} }
		case "tab", "down":
			return fs.setFocus(fs.focus + 1), nil
		case "shift+tab", "up":
			return fs.setFocus(fs.focus - 1), nil
		}
	}

	var cmd tea.Cmd
	fs.inputs[fs.focus], cmd = fs.inputs[fs.focus].Update(msg)
	return fs, cmd
}

// setFocus moves focus to index i, wrapping around the field list.
func (fs formState) setFocus(i int) formState {
	n := len(fs.inputs)
	i = ((i % n) + n) % n
	// Copy so the caller's form keeps its own inputs.
	inputs := append([]textinput.Model(nil), fs.inputs...)
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	fs.inputs = inputs
	fs.focus = i
	return fs
}

// withError returns the form with an inline error message.
func (fs formState) withError(msg string) formState {
	fs.err = msg
	return fs
}

// View renders the form.
func (fs formState) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fs.title))
	b.WriteString("\n\n")
	for i, f := range contact.Fields {
		label := f.Title()
		if f == contact.FieldName || f == contact.FieldPhone {
			label += "*"
		}
		b.WriteString(labelStyle.Render(label + ":"))
		b.WriteString(fs.inputs[i].View())
		b.WriteByte('\n')
	}
	b.WriteString("\n")
	b.WriteString(mutedText.Render("* required"))
	if fs.err != "" {
		b.WriteString("\n\n")
		b.WriteString(statusErr.Render(fs.err))
	}
	return b.String()
}
