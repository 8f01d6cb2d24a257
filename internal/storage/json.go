package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/smileynet/contactbook/internal/contact"
)

// JSONFile persists contacts as an indented JSON array of
// {name, phone, email, address} objects.
type JSONFile struct {
	path string
}

// NewJSONFile creates a JSONFile backed by path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file path.
func (s *JSONFile) Path() string { return s.path }

// Load reads the contact list. A missing file yields an empty list.
// An empty or unparsable file yields contact.ErrMalformed.
func (s *JSONFile) Load() ([]contact.Contact, error) {
	data, found, err := readFile(s.path)
	if err != nil || !found {
		return nil, err
	}

	var contacts []contact.Contact
	if err := json.Unmarshal(bytes.TrimSpace(data), &contacts); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", contact.ErrMalformed, s.path, err)
	}
	return contacts, nil
}

// Save overwrites the file with the full contact list.
func (s *JSONFile) Save(contacts []contact.Contact) error {
	data, err := json.MarshalIndent(records(contacts), "", "    ")
	if err != nil {
		return fmt.Errorf("storage: marshaling: %w", err)
	}
	return writeFile(s.path, append(data, '\n'))
}
