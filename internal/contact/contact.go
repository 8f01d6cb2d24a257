// Package contact implements the address book: the Contact record, its
// validation rules, and the Book that owns the working set.
package contact

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Error kinds surfaced by Book operations and storage backends.
var (
	ErrValidation     = errors.New("contact: validation failed")
	ErrDuplicatePhone = errors.New("contact: phone already exists")
	ErrNotFound       = errors.New("contact: no contact at position")
	ErrMalformed      = errors.New("contact: malformed backing file")
	ErrIO             = errors.New("contact: storage i/o failed")
)

// Contact is a single address book entry. Phone is the unique key.
// ID is assigned in memory when the record enters a Book and is never persisted.
type Contact struct {
	ID      string `json:"-" yaml:"-"`
	Name    string `json:"name" yaml:"name"`
	Phone   string `json:"phone" yaml:"phone"`
	Email   string `json:"email" yaml:"email"`
	Address string `json:"address" yaml:"address"`
}

// Field names a sortable Contact column.
type Field string

const (
	FieldName    Field = "name"
	FieldPhone   Field = "phone"
	FieldEmail   Field = "email"
	FieldAddress Field = "address"
)

// Fields lists the columns in display order.
var Fields = []Field{FieldName, FieldPhone, FieldEmail, FieldAddress}

// Title returns the column heading for the field.
func (f Field) Title() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldPhone:
		return "Phone"
	case FieldEmail:
		return "Email"
	case FieldAddress:
		return "Address"
	default:
		return string(f)
	}
}

// ParseField resolves a field name case-insensitively.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field %q (want name, phone, email or address)", ErrValidation, s)
}

// Value returns the contact's value for the given field.
func (c Contact) Value(f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldPhone:
		return c.Phone
	case FieldEmail:
		return c.Email
	case FieldAddress:
		return c.Address
	default:
		return ""
	}
}

// Normalize returns c with surrounding whitespace trimmed from every field.
func Normalize(c Contact) Contact {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	return c
}

// Validate checks the required fields of an already normalized contact.
func Validate(c Contact) error {
	switch {
	case c.Name == "" && c.Phone == "":
		return fmt.Errorf("%w: name and phone are required", ErrValidation)
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case c.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	return nil
}

// fold returns the Unicode case-folded form of s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}
