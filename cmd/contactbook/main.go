package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/contactbook"
	"github.com/smileynet/contactbook/internal/config"
	"github.com/smileynet/contactbook/internal/contact"
	"github.com/smileynet/contactbook/internal/export"
	"github.com/smileynet/contactbook/internal/render"
	"github.com/smileynet/contactbook/internal/storage"
	"github.com/smileynet/contactbook/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	userConfigPath    = "$HOME/.config/contactbook/config.yaml"
	userTemplateDir   = "$HOME/.config/contactbook/templates"
	projectConfigPath = ".contactbook/config.yaml"
)

// CLI is the top-level command structure for contactbook.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	UI      UICmd            `cmd:"" default:"1" help:"Open the interactive contact book (default)."`
	List    ListCmd          `cmd:"" help:"List all contacts."`
	Add     AddCmd           `cmd:"" help:"Add a contact."`
	Update  UpdateCmd        `cmd:"" help:"Update the contact at a position."`
	Delete  DeleteCmd        `cmd:"" help:"Delete the contact at a position."`
	Find    FindCmd          `cmd:"" help:"Find contacts by name or phone."`
	Sort    SortCmd          `cmd:"" help:"List contacts sorted by a field."`
	Export  ExportCmd        `cmd:"" help:"Export contacts to a CSV file."`
	Init    InitCmd          `cmd:"" help:"Write the default config to .contactbook/config.yaml."`
}

// Globals holds flags shared by every command.
type Globals struct {
	File   string `help:"Contact file (overrides storage.path)." short:"f"`
	Format string `help:"Storage format: auto, json, yaml or sqlite (overrides storage.format)."`
	Config string `help:"Config file to use instead of the user and project config files."`
	Plain  bool   `help:"Force plain text output even if stdout is a TTY."`
}

// loadConfig loads layered config from user and project paths (or --config
// alone), then applies environment and flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	paths := []string{os.ExpandEnv(userConfigPath), projectConfigPath}
	if g.Config != "" {
		if _, err := os.Stat(g.Config); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		paths = []string{g.Config}
	}

	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// Apply CLI flag overrides.
	if g.File != "" {
		cfg.Storage.Path = g.File
	}
	if g.Format != "" {
		cfg.Storage.Format = g.Format
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBook loads the contact book described by cfg. Recovered problems, such
// as a malformed backing file, are reported as warnings on stderr.
func openBook(cfg *config.Config, stderr io.Writer) (*contact.Book, error) {
	backend, err := storage.Open(cfg.Storage.Path, storage.Format(cfg.Storage.Format))
	if err != nil {
		return nil, err
	}
	book := contact.NewBook(backend, contact.WithLogger(log.New(stderr, "", 0)))
	if _, err := book.Load(); err != nil {
		return nil, err
	}
	return book, nil
}

// setup loads config and the contact book for a command.
func (g *Globals) setup(name string) (*config.Config, *contact.Book, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	book, err := openBook(cfg, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, book, nil
}

func (g *Globals) printer(w io.Writer) render.Printer {
	return render.NewPrinter(render.Options{Writer: w, ForcePlain: g.Plain})
}

// --- UI command ---

// UICmd opens the interactive contact book.
type UICmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds the model and launches the TUI.
func (c *UICmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("ui: requires a terminal (TTY); use list, add, update, delete, find, sort or export")
	}

	cfg, book, err := g.setup("ui")
	if err != nil {
		return err
	}

	if cfg.Log.File != "" {
		f, err := tea.LogToFile(cfg.Log.File, "contactbook")
		if err != nil {
			return fmt.Errorf("ui: %w: opening log file: %w", contact.ErrIO, err)
		}
		defer f.Close()
		log.Printf("opened %s (%d contacts)", cfg.Storage.Path, book.Len())
	}

	m := tui.NewModel(book,
		tui.WithConfirmDelete(cfg.UI.ConfirmDelete),
		tui.WithExportPath(cfg.Export.Path),
	)

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return c.run(true, tea.NewProgram(m, opts...))
}

// run executes the tea program, enabling testable wiring.
func (c *UICmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("ui: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	return err
}

// --- List command ---

// ListCmd prints every contact in storage order.
type ListCmd struct{}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	_, book, err := g.setup("list")
	if err != nil {
		return err
	}
	return c.run(g.printer(os.Stdout), book)
}

func (c *ListCmd) run(p render.Printer, book *contact.Book) error {
	return p.Print(rowsFor(book, book.List()), render.KindAll)
}

// --- Add command ---

// AddCmd adds a contact.
type AddCmd struct {
	Name    string `help:"Contact name (required)." short:"n"`
	Phone   string `help:"Phone number, unique across contacts (required)." short:"p"`
	Email   string `help:"Email address." short:"e"`
	Address string `help:"Postal address." short:"a"`
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals) error {
	_, book, err := g.setup("add")
	if err != nil {
		return err
	}
	return c.run(os.Stdout, book)
}

func (c *AddCmd) run(w io.Writer, book *contact.Book) error {
	added, err := book.Add(contact.Contact{Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address})
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Added %s at position %d\n", added.Name, book.IndexOf(added.ID)+1)
	return nil
}

// --- Update command ---

// UpdateCmd replaces fields of the contact at a position. Unset flags keep
// the current value; an empty value clears an optional field.
type UpdateCmd struct {
	Position int     `arg:"" help:"1-based position as shown by list."`
	Name     *string `help:"New name." short:"n"`
	Phone    *string `help:"New phone number." short:"p"`
	Email    *string `help:"New email address." short:"e"`
	Address  *string `help:"New postal address." short:"a"`
}

// Run executes the update command.
func (c *UpdateCmd) Run(g *Globals) error {
	_, book, err := g.setup("update")
	if err != nil {
		return err
	}
	return c.run(os.Stdout, book)
}

func (c *UpdateCmd) run(w io.Writer, book *contact.Book) error {
	index, err := storageIndex(book, c.Position)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	current, err := book.At(index)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	next := current
	for _, f := range []struct {
		value *string
		field *string
	}{
		{c.Name, &next.Name},
		{c.Phone, &next.Phone},
		{c.Email, &next.Email},
		{c.Address, &next.Address},
	} {
		if f.value != nil {
			*f.field = *f.value
		}
	}

	updated, err := book.Update(index, next)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Updated %s at position %d\n", updated.Name, c.Position)
	return nil
}

// --- Delete command ---

// DeleteCmd removes the contact at a position.
type DeleteCmd struct {
	Position int `arg:"" help:"1-based position as shown by list."`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	_, book, err := g.setup("delete")
	if err != nil {
		return err
	}
	return c.run(os.Stdout, book)
}

func (c *DeleteCmd) run(w io.Writer, book *contact.Book) error {
	index, err := storageIndex(book, c.Position)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	removed, err := book.Delete(index)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Contact '%s' deleted.\n", removed.Name)
	return nil
}

// --- Find command ---

// FindCmd lists contacts whose name contains the query (case-insensitive)
// or whose phone contains it literally.
type FindCmd struct {
	Query string `arg:"" help:"Text to match against name or phone."`
}

// Run executes the find command.
func (c *FindCmd) Run(g *Globals) error {
	_, book, err := g.setup("find")
	if err != nil {
		return err
	}
	return c.run(g.printer(os.Stdout), book)
}

func (c *FindCmd) run(p render.Printer, book *contact.Book) error {
	return p.Print(rowsFor(book, book.Find(c.Query)), render.KindSearch)
}

// --- Sort command ---

// SortCmd lists contacts ordered by one field.
type SortCmd struct {
	Field string `arg:"" enum:"name,phone,email,address" help:"Field to sort by: name, phone, email or address."`
	Desc  bool   `help:"Sort descending."`
}

// Run executes the sort command.
func (c *SortCmd) Run(g *Globals) error {
	_, book, err := g.setup("sort")
	if err != nil {
		return err
	}
	return c.run(g.printer(os.Stdout), book)
}

func (c *SortCmd) run(p render.Printer, book *contact.Book) error {
	sorted, err := book.Sorted(contact.Field(c.Field), c.Desc)
	if err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	return p.Print(rowsFor(book, sorted), render.KindAll)
}

// --- Export command ---

// ExportCmd writes contacts to a CSV file.
type ExportCmd struct {
	Path  string `arg:"" optional:"" help:"Destination file (default: export.path from config)."`
	Query string `help:"Only export contacts matching this search." short:"q"`
	Sort  string `help:"Order by field: name, phone, email or address." short:"s"`
	Desc  bool   `help:"Sort descending."`
}

// Run executes the export command.
func (c *ExportCmd) Run(g *Globals) error {
	cfg, book, err := g.setup("export")
	if err != nil {
		return err
	}
	if c.Path == "" {
		c.Path = cfg.Export.Path
	}
	return c.run(os.Stdout, book, export.ToFile)
}

func (c *ExportCmd) run(w io.Writer, book *contact.Book, write tui.ExportFunc) error {
	contacts := book.List()
	if c.Query != "" {
		contacts = book.Find(c.Query)
	}
	if c.Sort != "" {
		field, err := contact.ParseField(c.Sort)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		contact.SortContacts(contacts, field, c.Desc)
	}

	written, err := write(c.Path, contacts)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Contacts exported to %s (%d)\n", written, len(contacts))
	return nil
}

// --- Init command ---

// InitCmd writes the default config template to the project config path.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file."`
}

// Run executes the init command.
func (c *InitCmd) Run(g *Globals) error {
	path := projectConfigPath
	if g.Config != "" {
		path = g.Config
	}
	return c.run(os.Stdout, path, os.ExpandEnv(userTemplateDir))
}

func (c *InitCmd) run(w io.Writer, path, templateDir string) error {
	if !c.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("init: %s already exists (use --force to overwrite)", path)
		}
	}

	data, err := contactbook.ConfigTemplate(templateDir)
	if err != nil {
		return fmt.Errorf("init: reading config template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("init: %w: %w", contact.ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("init: %w: %w", contact.ErrIO, err)
	}

	_, _ = fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// --- Helpers ---

// rowsFor pairs contacts with their 1-based storage positions.
func rowsFor(book *contact.Book, contacts []contact.Contact) []render.Row {
	rows := make([]render.Row, len(contacts))
	for i, c := range contacts {
		rows[i] = render.Row{Position: book.IndexOf(c.ID) + 1, Contact: c}
	}
	return rows
}

// storageIndex converts a 1-based CLI position to a 0-based storage index.
func storageIndex(book *contact.Book, position int) (int, error) {
	if position < 1 || position > book.Len() {
		return 0, fmt.Errorf("%w: no contact at position %d (have %d)", contact.ErrNotFound, position, book.Len())
	}
	return position - 1, nil
}

const (
	exitSuccess = 0
	exitUser    = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, contact.ErrValidation) ||
		errors.Is(err, contact.ErrDuplicatePhone) ||
		errors.Is(err, contact.ErrNotFound) {
		return exitUser
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("contactbook"),
		kong.Description("A small address book with an interactive terminal interface."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
