package tui

import (
	"fmt"
	"strings"

	"github.com/smileynet/contactbook/internal/contact"
)

// confirmState holds the contact awaiting delete confirmation.
type confirmState struct {
	target contact.Contact
}

// View renders the confirmation dialog.
func (cs confirmState) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delete contact '%s'?\n", cs.target.Name)
	fmt.Fprintf(&b, "\n  Phone: %s", cs.target.Phone)
	if cs.target.Email != "" {
		fmt.Fprintf(&b, "\n  Email: %s", cs.target.Email)
	}
	b.WriteString("\n\n  [y] Delete   [n] Cancel")
	return b.String()
}
