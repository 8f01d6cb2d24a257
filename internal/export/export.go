// Package export writes contact lists to tabular files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/smileynet/contactbook/internal/contact"
)

// Header is the first row of every CSV export.
var Header = []string{"Name", "Phone", "Email", "Address"}

// WriteCSV writes the header and one row per contact, in the given order.
func WriteCSV(w io.Writer, contacts []contact.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}
	for _, c := range contacts {
		if err := cw.Write([]string{c.Name, c.Phone, c.Email, c.Address}); err != nil {
			return fmt.Errorf("export: writing row for %s: %w", c.Phone, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flushing: %w", err)
	}
	return nil
}

// ToFile writes contacts as CSV to path and returns the path written.
// A path without an extension gets ".csv" appended.
func ToFile(path string, contacts []contact.Contact) (written string, err error) {
	if path == "" {
		return "", fmt.Errorf("%w: export path is required", contact.ErrValidation)
	}
	if filepath.Ext(path) == "" {
		path += ".csv"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: creating directory %s: %w", contact.ErrIO, dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", contact.ErrIO, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", contact.ErrIO, path, cerr)
		}
	}()

	if err := WriteCSV(f, contacts); err != nil {
		return "", fmt.Errorf("%w: %s: %w", contact.ErrIO, path, err)
	}
	return path, nil
}
