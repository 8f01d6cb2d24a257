// Package tui implements the interactive contact book: a contact table with
// add/edit forms, search, column sorting, delete confirmation and CSV export.
package tui

import "github.com/smileynet/contactbook/internal/contact"

// Mode represents the current interaction mode.
type Mode int

const (
	ModeBrowse        Mode = iota // Navigating the contact table.
	ModeAdd                       // Filling the add form.
	ModeEdit                      // Filling the edit form for the selected contact.
	ModeSearch                    // Typing a search query.
	ModeConfirmDelete             // Confirming deletion of the selected contact.
	ModeExport                    // Typing the export path.
)

// String returns the mode name shown in the title bar.
func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	case ModeSearch:
		return "search"
	case ModeConfirmDelete:
		return "delete"
	case ModeExport:
		return "export"
	default:
		return "browse"
	}
}

// --- Consumer-side interfaces ---

// Store is the contact book operations the TUI drives. *contact.Book satisfies it.
type Store interface {
	List() []contact.Contact
	Add(candidate contact.Contact) (contact.Contact, error)
	Update(position int, candidate contact.Contact) (contact.Contact, error)
	Delete(position int) (contact.Contact, error)
	Find(query string) []contact.Contact
	SortBy(field contact.Field) ([]contact.Contact, error)
	NextSortDescending(field contact.Field) bool
	Sorted(field contact.Field, descending bool) ([]contact.Contact, error)
	IndexOf(id string) int
}

// Compile-time check: contact.Book satisfies Store.
var _ Store = (*contact.Book)(nil)

// ExportFunc writes contacts to path and returns the path actually written.
type ExportFunc func(path string, contacts []contact.Contact) (string, error)

// --- tea.Msg types ---

// FormSubmitMsg carries the values entered in the add/edit form.
// ID is the edited contact's ID, empty when adding.
type FormSubmitMsg struct {
	ID      string
	Contact contact.Contact
}

// FormCancelMsg signals the form was dismissed without saving.
type FormCancelMsg struct{}
