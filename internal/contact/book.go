package contact

import (
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Backend loads and saves the whole contact list.
// A missing backing file loads as an empty list without error.
type Backend interface {
	Load() ([]Contact, error)
	Save(contacts []Contact) error
}

// Book owns the in-memory contact list and writes it back through its
// Backend after every mutation. Positions are indices into storage order.
//
// A Book is not safe for concurrent use; confine it to one goroutine
// (e.g., the Bubble Tea update loop).
type Book struct {
	backend  Backend
	contacts []Contact
	sortDesc map[Field]bool // next direction per field
	logger   *log.Logger
	newID    func() string
}

// BookOption configures a Book.
type BookOption func(*Book)

// WithLogger sets the logger used for recovered conditions such as a malformed backing file.
func WithLogger(l *log.Logger) BookOption {
	return func(b *Book) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithIDFunc overrides how record IDs are generated.
func WithIDFunc(fn func() string) BookOption {
	return func(b *Book) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// NewBook creates an empty Book backed by backend. Call Load to read the backing file.
func NewBook(backend Backend, opts ...BookOption) *Book {
	b := &Book{
		backend:  backend,
		sortDesc: make(map[Field]bool),
		logger:   log.New(io.Discard, "", 0),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the working set with the backing file's contents.
// A malformed file is treated as empty and logged; other failures are returned.
func (b *Book) Load() ([]Contact, error) {
	loaded, err := b.backend.Load()
	if err != nil {
		if !errors.Is(err, ErrMalformed) {
			return nil, err
		}
		b.logger.Printf("warning: %v; starting with an empty contact list", err)
		loaded = nil
	}

	contacts := make([]Contact, len(loaded))
	for i, c := range loaded {
		c.ID = b.newID()
		contacts[i] = c
	}
	b.contacts = contacts
	return b.List(), nil
}

// Save writes the full working set to the backing file.
func (b *Book) Save() error {
	return b.backend.Save(b.List())
}

// List returns a copy of all contacts in storage order.
func (b *Book) List() []Contact {
	return slices.Clone(b.contacts)
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	return len(b.contacts)
}

// At returns the contact at position.
func (b *Book) At(position int) (Contact, error) {
	if err := b.checkPosition(position); err != nil {
		return Contact{}, err
	}
	return b.contacts[position], nil
}

// ByPhone returns the contact with exactly the given phone.
func (b *Book) ByPhone(phone string) (Contact, bool) {
	phone = strings.TrimSpace(phone)
	for _, c := range b.contacts {
		if c.Phone == phone {
			return c, true
		}
	}
	return Contact{}, false
}

// IndexOf returns the storage position of the contact with the given ID, or -1.
func (b *Book) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(b.contacts, func(c Contact) bool { return c.ID == id })
}

// Add validates candidate, appends it and persists the list.
func (b *Book) Add(candidate Contact) (Contact, error) {
	c := Normalize(candidate)
	if err := Validate(c); err != nil {
		return Contact{}, err
	}
	if b.phoneTaken(c.Phone, -1) {
		return Contact{}, fmt.Errorf("%w: %s", ErrDuplicatePhone, c.Phone)
	}

	c.ID = b.newID()
	b.contacts = append(b.contacts, c)
	if err := b.Save(); err != nil {
		b.contacts = b.contacts[:len(b.contacts)-1]
		return Contact{}, err
	}
	return c, nil
}

// Update replaces the contact at position with candidate and persists the list.
// The replaced record keeps its ID. The phone may stay the same but must not
// collide with any other record.
func (b *Book) Update(position int, candidate Contact) (Contact, error) {
	c := Normalize(candidate)
	if err := Validate(c); err != nil {
		return Contact{}, err
	}
	if err := b.checkPosition(position); err != nil {
		return Contact{}, err
	}
	if b.phoneTaken(c.Phone, position) {
		return Contact{}, fmt.Errorf("%w: %s", ErrDuplicatePhone, c.Phone)
	}

	prev := b.contacts[position]
	c.ID = prev.ID
	b.contacts[position] = c
	if err := b.Save(); err != nil {
		b.contacts[position] = prev
		return Contact{}, err
	}
	return c, nil
}

// Delete removes the contact at position, persists the list and returns the removed record.
func (b *Book) Delete(position int) (Contact, error) {
	if err := b.checkPosition(position); err != nil {
		return Contact{}, err
	}

	prev := b.contacts
	removed := prev[position]
	b.contacts = slices.Delete(slices.Clone(prev), position, position+1)
	if err := b.Save(); err != nil {
		b.contacts = prev
		return Contact{}, err
	}
	return removed, nil
}

// Find returns contacts whose name contains query case-insensitively or whose
// phone contains query literally, in storage order. An empty query matches all.
func (b *Book) Find(query string) []Contact {
	query = strings.TrimSpace(query)
	folded := fold(query)

	var found []Contact
	for _, c := range b.contacts {
		if strings.Contains(fold(c.Name), folded) || strings.Contains(c.Phone, query) {
			found = append(found, c)
		}
	}
	return found
}

// SortBy returns all contacts ordered by field. The first request for a field
// is ascending; each repeated request for the same field flips the direction.
func (b *Book) SortBy(field Field) ([]Contact, error) {
	f, err := ParseField(string(field))
	if err != nil {
		return nil, err
	}
	desc := b.sortDesc[f]
	b.sortDesc[f] = !desc
	return b.Sorted(f, desc)
}

// NextSortDescending reports whether the next SortBy for field sorts descending.
func (b *Book) NextSortDescending(field Field) bool {
	return b.sortDesc[field]
}

// Sorted returns all contacts ordered by field without touching the toggle state.
func (b *Book) Sorted(field Field, descending bool) ([]Contact, error) {
	f, err := ParseField(string(field))
	if err != nil {
		return nil, err
	}
	sorted := b.List()
	SortContacts(sorted, f, descending)
	return sorted, nil
}

// SortContacts stably sorts contacts in place by case-folded field value.
func SortContacts(contacts []Contact, field Field, descending bool) {
	slices.SortStableFunc(contacts, func(a, c Contact) int {
		cmp := strings.Compare(fold(a.Value(field)), fold(c.Value(field)))
		if descending {
			return -cmp
		}
		return cmp
	})
}

// phoneTaken reports whether phone belongs to a record other than the one at skip.
func (b *Book) phoneTaken(phone string, skip int) bool {
	for i, c := range b.contacts {
		if i != skip && c.Phone == phone {
			return true
		}
	}
	return false
}

func (b *Book) checkPosition(position int) error {
	if position < 0 || position >= len(b.contacts) {
		return fmt.Errorf("%w: %d (have %d)", ErrNotFound, position, len(b.contacts))
	}
	return nil
}
