// Package storage implements backing-file formats for the contact book.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smileynet/contactbook/internal/contact"
)

// Format names a backing-file encoding.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ErrUnknownFormat indicates a format name that no backend implements.
var ErrUnknownFormat = errors.New("storage: unknown format")

// Compile-time checks: every backend satisfies contact.Backend.
var (
	_ contact.Backend = (*JSONFile)(nil)
	_ contact.Backend = (*YAMLFile)(nil)
	_ contact.Backend = (*SQLiteFile)(nil)
)

// Open returns the backend for path. FormatAuto (or "") picks by extension:
// .yaml/.yml is YAML, .db/.sqlite/.sqlite3 is SQLite, anything else JSON.
func Open(path string, format Format) (contact.Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage: path is required")
	}
	if format == "" || format == FormatAuto {
		format = Detect(path)
	}
	switch format {
	case FormatJSON:
		return NewJSONFile(path), nil
	case FormatYAML:
		return NewYAMLFile(path), nil
	case FormatSQLite:
		return NewSQLiteFile(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Detect infers the format from the file extension.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// readFile reads path, reporting (nil, false, nil) when it does not exist.
func readFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: reading %s: %w", contact.ErrIO, path, err)
	}
	return data, true, nil
}

// writeFile replaces path with data, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating directory %s: %w", contact.ErrIO, dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %w", contact.ErrIO, path, err)
	}
	return nil
}

// records strips in-memory IDs and guarantees a non-nil slice.
func records(contacts []contact.Contact) []contact.Contact {
	out := make([]contact.Contact, len(contacts))
	for i, c := range contacts {
		c.ID = ""
		out[i] = c
	}
	return out
}
