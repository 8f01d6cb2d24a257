package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/smileynet/contactbook/internal/contact"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS contacts (
    position INTEGER PRIMARY KEY,
    name     TEXT NOT NULL,
    phone    TEXT NOT NULL UNIQUE,
    email    TEXT NOT NULL DEFAULT '',
    address  TEXT NOT NULL DEFAULT ''
);
`

// SQLiteFile persists contacts in a SQLite database file. The database is
// opened and closed within each Load or Save.
type SQLiteFile struct {
	path string
}

// NewSQLiteFile creates a SQLiteFile backed by path.
func NewSQLiteFile(path string) *SQLiteFile {
	return &SQLiteFile{path: filepath.Clean(path)}
}

// Path returns the database file path.
func (s *SQLiteFile) Path() string { return s.path }

// Load reads all contacts ordered by position. A missing file yields an
// empty list; a file that is not a SQLite database yields contact.ErrMalformed.
func (s *SQLiteFile) Load() ([]contact.Contact, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %w", contact.ErrIO, s.path, err)
	}

	ctx := context.Background()
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT name, phone, email, address FROM contacts ORDER BY position`)
	if err != nil {
		return nil, s.wrap("querying", err)
	}
	defer rows.Close()

	var contacts []contact.Contact
	for rows.Next() {
		var c contact.Contact
		if err := rows.Scan(&c.Name, &c.Phone, &c.Email, &c.Address); err != nil {
			return nil, s.wrap("scanning", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterating", err)
	}
	return contacts, nil
}

// Save replaces every row with the given list in a single transaction.
func (s *SQLiteFile) Save(contacts []contact.Contact) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating directory %s: %w", contact.ErrIO, dir, err)
		}
	}

	ctx := context.Background()
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return s.wrap("clearing", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contacts (position, name, phone, email, address) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return s.wrap("preparing insert", err)
	}
	defer stmt.Close()

	for i, c := range contacts {
		if _, err := stmt.ExecContext(ctx, i, c.Name, c.Phone, c.Email, c.Address); err != nil {
			return s.wrap("inserting", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return s.wrap("committing", err)
	}
	return nil
}

// open opens the database and ensures the contacts table exists.
func (s *SQLiteFile) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", contact.ErrIO, s.path, err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, s.wrap("ensuring schema", err)
	}
	return db, nil
}

// wrap classifies a driver error as malformed content or an I/O failure.
func (s *SQLiteFile) wrap(op string, err error) error {
	if isNotADatabase(err) {
		return fmt.Errorf("%w: %s %s: %w", contact.ErrMalformed, op, s.path, err)
	}
	return fmt.Errorf("%w: %s %s: %w", contact.ErrIO, op, s.path, err)
}

func isNotADatabase(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_NOTADB, sqlite3lib.SQLITE_CORRUPT:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "file is not a database")
}
