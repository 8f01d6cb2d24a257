package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/smileynet/contactbook/internal/contact"
)

// YAMLFile persists contacts as a YAML sequence.
type YAMLFile struct {
	path string
}

// NewYAMLFile creates a YAMLFile backed by path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Path returns the backing file path.
func (s *YAMLFile) Path() string { return s.path }

// Load reads the contact list. Missing, empty and comment-only files yield an
// empty list; unparsable content or unknown keys yield contact.ErrMalformed.
func (s *YAMLFile) Load() ([]contact.Contact, error) {
	data, found, err := readFile(s.path)
	if err != nil || !found {
		return nil, err
	}

	var contacts []contact.Contact
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&contacts); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: parsing %s: %w", contact.ErrMalformed, s.path, err)
	}
	return contacts, nil
}

// Save overwrites the file with the full contact list.
func (s *YAMLFile) Save(contacts []contact.Contact) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records(contacts)); err != nil {
		return fmt.Errorf("storage: marshaling: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("storage: marshaling: %w", err)
	}
	return writeFile(s.path, buf.Bytes())
}
