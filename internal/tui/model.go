package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/contactbook/internal/contact"
	"github.com/smileynet/contactbook/internal/export"
	"github.com/smileynet/contactbook/internal/render"
)

// chromeHeight is the number of lines around the table: title, borders,
// footer and help bar.
const chromeHeight = 6

// Model is the root Bubble Tea model for the contact book.
type Model struct {
	store         Store
	mode          Mode
	width         int
	height        int
	table         table.Model
	help          help.Model
	form          formState
	confirm       confirmState
	prompt        textinput.Model
	rows          []contact.Contact // contacts in display order
	kind          render.Kind
	sorted        bool
	sortField     contact.Field
	sortDesc      bool
	status        string
	statusIsErr   bool
	confirmDelete bool
	exportPath    string
	exporter      ExportFunc
}

// ModelOption configures optional Model dependencies.
type ModelOption func(*Model)

// WithConfirmDelete sets whether deletion asks for confirmation (default true).
func WithConfirmDelete(confirm bool) ModelOption {
	return func(m *Model) { m.confirmDelete = confirm }
}

// WithExportPath sets the path the export prompt starts with.
func WithExportPath(path string) ModelOption {
	return func(m *Model) { m.exportPath = path }
}

// WithExporter overrides how the export prompt writes files.
func WithExporter(fn ExportFunc) ModelOption {
	return func(m *Model) {
		if fn != nil {
			m.exporter = fn
		}
	}
}

// NewModel creates a Model in browse mode showing every contact in store.
func NewModel(store Store, opts ...ModelOption) Model {
	columns := make([]table.Column, len(contact.Fields))
	for i, f := range contact.Fields {
		columns[i] = table.Column{Title: f.Title(), Width: MinColumnWidth * 2}
	}

	prompt := textinput.New()
	prompt.CharLimit = fieldCharLimit

	m := Model{
		store: store,
		mode:  ModeBrowse,
		table: table.New(
			table.WithColumns(columns),
			table.WithFocused(true),
			table.WithStyles(tableStyles()),
		),
		help:          help.New(),
		prompt:        prompt,
		confirmDelete: true,
		exportPath:    "contacts.csv",
		exporter:      export.ToFile,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.showAll()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case FormSubmitMsg:
		return m.submitForm(msg), nil

	case FormCancelMsg:
		m.mode = ModeBrowse
		m.table.Focus()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case ModeAdd, ModeEdit:
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		case ModeSearch, ModeExport:
			return m.handlePromptKey(msg)
		case ModeConfirmDelete:
			return m.handleConfirmKey(msg)
		default:
			return m.handleBrowseKey(msg)
		}
	}

	// Non-key messages (e.g. cursor blink) go to whichever input is active.
	var cmd tea.Cmd
	switch m.mode {
	case ModeAdd, ModeEdit:
		m.form, cmd = m.form.Update(msg)
	case ModeSearch, ModeExport:
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

// handleBrowseKey processes keys while navigating the table.
func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "a":
		m.clearStatus()
		return m.openForm(ModeAdd, "Add Contact", "", contact.Contact{})

	case "e", "enter":
		selected, ok := m.selected()
		if !ok {
			m.setError("Select a contact to update.")
			return m, nil
		}
		m.clearStatus()
		return m.openForm(ModeEdit, "Update Contact", selected.ID, selected)

	case "d", "delete":
		selected, ok := m.selected()
		if !ok {
			m.setError("Select a contact to delete.")
			return m, nil
		}
		if !m.confirmDelete {
			return m.deleteContact(selected), nil
		}
		m.clearStatus()
		m.confirm = confirmState{target: selected}
		m.mode = ModeConfirmDelete
		m.table.Blur()
		return m, nil

	case "/":
		m.clearStatus()
		return m.openPrompt(ModeSearch, "Search name or phone: ", "")

	case "v", "esc":
		m.clearStatus()
		m.showAll()
		return m, nil

	case "1", "2", "3", "4":
		field := contact.Fields[int(msg.String()[0]-'1')]
		return m.sortBy(field), nil

	case "x":
		m.clearStatus()
		return m.openPrompt(ModeExport, "Export to: ", m.exportPath)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handlePromptKey processes keys for the search and export prompts.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		value := m.prompt.Value()
		mode := m.mode
		m.closePrompt()
		if mode == ModeSearch {
			return m.search(value), nil
		}
		return m.exportTo(value), nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// handleConfirmKey processes keys for the delete confirmation dialog.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.mode = ModeBrowse
		m.table.Focus()
		return m.deleteContact(m.confirm.target), nil
	case "n", "esc":
		m.mode = ModeBrowse
		m.table.Focus()
		return m, nil
	}
	return m, nil
}

func (m Model) openForm(mode Mode, title, id string, c contact.Contact) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.form = newForm(title, id, c)
	m.table.Blur()
	return m, textinput.Blink
}

func (m Model) openPrompt(mode Mode, label, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.prompt.Prompt = label
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.table.Blur()
	return m, m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.mode = ModeBrowse
	m.prompt.Blur()
	m.prompt.SetValue("")
	m.table.Focus()
}

// submitForm applies the form values through the store. Validation and
// duplicate errors keep the form open so the user can correct them.
func (m Model) submitForm(msg FormSubmitMsg) Model {
	if msg.ID == "" {
		if _, err := m.store.Add(msg.Contact); err != nil {
			m.form = m.form.withError(describe(err))
			return m
		}
		m.mode = ModeBrowse
		m.table.Focus()
		m.showAll()
		m.setStatus("Contact added.")
		return m
	}

	position := m.store.IndexOf(msg.ID)
	if position < 0 {
		m.mode = ModeBrowse
		m.table.Focus()
		m.showAll()
		m.setError("Contact no longer exists.")
		return m
	}
	if _, err := m.store.Update(position, msg.Contact); err != nil {
		m.form = m.form.withError(describe(err))
		return m
	}
	m.mode = ModeBrowse
	m.table.Focus()
	m.showAll()
	m.setStatus("Contact updated successfully.")
	return m
}

// deleteContact removes target by ID so filtered or sorted views delete the
// record shown on screen.
func (m Model) deleteContact(target contact.Contact) Model {
	position := m.store.IndexOf(target.ID)
	if position < 0 {
		m.showAll()
		m.setError("Contact no longer exists.")
		return m
	}
	removed, err := m.store.Delete(position)
	if err != nil {
		m.setError(describe(err))
		return m
	}
	m.showAll()
	m.setStatus(fmt.Sprintf("Contact '%s' deleted.", removed.Name))
	return m
}

func (m Model) search(query string) Model {
	if strings.TrimSpace(query) == "" {
		return m
	}
	m.sorted = false
	m.kind = render.KindSearch
	m.setRows(m.store.Find(query))
	return m
}

func (m Model) sortBy(field contact.Field) Model {
	sorted, err := m.store.SortBy(field)
	if err != nil {
		m.setError(describe(err))
		return m
	}
	// SortBy has already flipped the toggle for the next request.
	m.sortDesc = !m.store.NextSortDescending(field)
	m.sorted = true
	m.sortField = field
	m.kind = render.KindAll
	m.clearStatus()
	m.setRows(sorted)
	return m
}

// exportTo writes the full contact list, in the current sort order when the
// table is sorted, to path.
func (m Model) exportTo(path string) Model {
	path = strings.TrimSpace(path)
	if path == "" {
		return m
	}
	contacts := m.store.List()
	if m.sorted {
		if sorted, err := m.store.Sorted(m.sortField, m.sortDesc); err == nil {
			contacts = sorted
		}
	}
	written, err := m.exporter(path, contacts)
	if err != nil {
		m.setError(describe(err))
		return m
	}
	m.exportPath = written
	m.setStatus(fmt.Sprintf("Contacts exported to %s", written))
	return m
}

// showAll resets the table to every contact in storage order.
func (m *Model) showAll() {
	m.sorted = false
	m.kind = render.KindAll
	m.setRows(m.store.List())
}

// setRows replaces the displayed rows, keeping the cursor in range.
func (m *Model) setRows(contacts []contact.Contact) {
	m.rows = contacts
	rows := make([]table.Row, len(contacts))
	for i, c := range contacts {
		row := make(table.Row, len(contact.Fields))
		for j, f := range contact.Fields {
			row[j] = strings.ReplaceAll(c.Value(f), "\n", " ")
		}
		rows[i] = row
	}
	cursor := m.table.Cursor()
	m.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
	m.updateHeadings()
}

// updateHeadings marks the sorted column with its direction.
func (m *Model) updateHeadings() {
	widths := ColumnWidths(m.width - 2)
	columns := make([]table.Column, len(contact.Fields))
	for i, f := range contact.Fields {
		title := f.Title()
		if m.sorted && f == m.sortField {
			if m.sortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		width := MinColumnWidth * 2
		if m.width > 0 {
			width = widths[i]
		}
		columns[i] = table.Column{Title: title, Width: width}
	}
	m.table.SetColumns(columns)
}

func (m *Model) resize() {
	inner := m.width - 2
	if inner < 0 {
		inner = 0
	}
	m.table.SetWidth(inner)
	h := m.height - chromeHeight
	if h < 1 {
		h = 1
	}
	m.table.SetHeight(h)
	m.prompt.Width = max(inner-lipgloss.Width(m.prompt.Prompt)-1, 0)
	m.updateHeadings()
}

// selected returns the contact under the table cursor.
func (m Model) selected() (contact.Contact, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return contact.Contact{}, false
	}
	return m.rows[i], true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusIsErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusIsErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusIsErr = false
}

// describe turns a store error into a message for the status line.
func describe(err error) string {
	switch {
	case errors.Is(err, contact.ErrValidation):
		return "Name and Phone are required."
	case errors.Is(err, contact.ErrDuplicatePhone):
		return "A contact with this phone number already exists."
	case errors.Is(err, contact.ErrNotFound):
		return "Select a contact first."
	default:
		return fmt.Sprintf("Error: %s", err)
	}
}

// View renders the title, the table (or the active dialog), the footer and the help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render("Contact Book")
	if m.mode != ModeBrowse {
		title += mutedText.Render(" · " + m.mode.String())
	}

	boxWidth := m.width - 2
	if boxWidth < 0 {
		boxWidth = 0
	}
	contentHeight := m.height - chromeHeight + 1
	if contentHeight < 1 {
		contentHeight = 1
	}

	var body string
	switch m.mode {
	case ModeAdd, ModeEdit:
		body = FocusedBorder().Width(boxWidth).Height(contentHeight).Render(m.form.View())
	case ModeConfirmDelete:
		body = FocusedBorder().Width(boxWidth).Height(contentHeight).Render(m.confirm.View())
	case ModeSearch, ModeExport:
		body = UnfocusedBorder().Width(boxWidth).Render(m.table.View()) + "\n" + m.prompt.View()
	default:
		body = FocusedBorder().Width(boxWidth).Render(m.table.View())
	}

	footer := mutedText.Render(render.Counter(len(m.rows), m.kind))
	if m.status != "" {
		style := statusOK
		if m.statusIsErr {
			style = statusErr
		}
		footer += "  " + style.Render(m.status)
	}

	helpView := m.help.View(HelpBindings(m.mode))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, footer, helpView)
}
