package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contactbook/internal/contact"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// memBackend is an in-memory contact.Backend.
type memBackend struct {
	saved   []contact.Contact
	saveErr error
}

func (b *memBackend) Load() ([]contact.Contact, error) {
	return slices.Clone(b.saved), nil
}

func (b *memBackend) Save(contacts []contact.Contact) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = slices.Clone(contacts)
	return nil
}

var errDiskFull = errors.New("disk full")

// newTestStore returns a loaded Book seeded with contacts.
func newTestStore(t *testing.T, seed ...contact.Contact) (*contact.Book, *memBackend) {
	t.Helper()
	backend := &memBackend{saved: seed}
	n := 0
	book := contact.NewBook(backend, contact.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	if _, err := book.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return book, backend
}

func ann() contact.Contact {
	return contact.Contact{Name: "Ann", Phone: "555-0100", Email: "ann@example.com"}
}

func bo() contact.Contact {
	return contact.Contact{Name: "bo", Phone: "555-0199"}
}

// keyMsg builds the tea.KeyMsg whose String() is s.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// sized returns m after a window size message.
func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

// press feeds keys to m in order. Form submit and cancel commands are run
// and their messages fed back, as the Bubble Tea runtime would.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		inForm := m.mode == ModeAdd || m.mode == ModeEdit
		updated, cmd := m.Update(keyMsg(k))
		m = updated.(Model)
		if !inForm || cmd == nil || (k != "enter" && k != "esc") {
			continue
		}
		switch msg := cmd().(type) {
		case FormSubmitMsg, FormCancelMsg:
			updated, _ = m.Update(msg)
			m = updated.(Model)
		}
	}
	return m
}

// quits reports whether cmd is tea.Quit.
func quits(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func rowNames(m Model) []string {
	out := make([]string, len(m.rows))
	for i, c := range m.rows {
		out[i] = c.Name
	}
	return out
}
