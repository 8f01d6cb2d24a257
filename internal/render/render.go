// Package render prints contact lists for the command line: a styled table
// when stdout is a terminal, tab-separated text otherwise.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/contactbook/internal/contact"
)

// Row is a contact paired with its 1-based storage position.
type Row struct {
	Position int
	Contact  contact.Contact
}

// Kind selects the footer wording.
type Kind int

const (
	KindAll    Kind = iota // Every contact, storage or sorted order.
	KindSearch             // Result of a search.
)

// Counter returns the footer label, e.g. "3 Contact(s)" or "1 Search Result(s)".
func Counter(n int, kind Kind) string {
	if kind == KindSearch {
		return fmt.Sprintf("%d Search Result(s)", n)
	}
	return fmt.Sprintf("%d Contact(s)", n)
}

// Printer writes a list of rows followed by a counter footer.
type Printer interface {
	Print(rows []Row, kind Kind) error
}

// Options configures printer creation.
type Options struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if TTY.
}

// NewPrinter returns a TablePrinter when the writer is a TTY, or a PlainPrinter
// otherwise. ForcePlain overrides TTY detection.
func NewPrinter(opts Options) Printer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.ForcePlain || !IsTTY(opts.Writer) {
		return &PlainPrinter{w: opts.Writer}
	}
	return &TablePrinter{w: opts.Writer}
}

// IsTTY reports whether w is connected to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// headers returns the column titles, position first.
func headers() []string {
	h := []string{"#"}
	for _, f := range contact.Fields {
		h = append(h, f.Title())
	}
	return h
}

func cells(r Row) []string {
	out := []string{strconv.Itoa(r.Position)}
	for _, f := range contact.Fields {
		out = append(out, r.Contact.Value(f))
	}
	return out
}

// PlainPrinter writes tab-separated lines, suitable for scripts.
type PlainPrinter struct {
	w io.Writer
}

// Print writes a header line, one line per row, and the counter.
func (p *PlainPrinter) Print(rows []Row, kind Kind) error {
	if _, err := fmt.Fprintln(p.w, strings.Join(headers(), "\t")); err != nil {
		return err
	}
	for _, r := range rows {
		line := cells(r)
		for i := range line {
			// Keep one record per line.
			line[i] = strings.ReplaceAll(line[i], "\n", " ")
		}
		if _, err := fmt.Fprintln(p.w, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.w, Counter(len(rows), kind))
	return err
}

// TablePrinter renders a bordered lipgloss table.
type TablePrinter struct {
	w io.Writer
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	posStyle    = cellStyle.Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
)

// Print renders the table and the counter.
func (p *TablePrinter) Print(rows []Row, kind Kind) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return posStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rows {
		t.Row(cells(r)...)
	}
	_, err := fmt.Fprintf(p.w, "%s\n%s\n", t.Render(), Counter(len(rows), kind))
	return err
}
