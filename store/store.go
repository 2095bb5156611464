// Package store persists added books and their reading progress in a local
// sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound indicates no book exists under the given id.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidField indicates an UpdateField call named a column outside
	// the whitelist.
	ErrInvalidField = errors.New("field not updatable")
)

// Metadata describes one stored book.
type Metadata struct {
	ID       string
	Title    string
	Pages    int
	Progress int // Last-read page index
	Voice    string
	Size     int64 // Original file size in bytes
	AddedAt  time.Time
}

// Book is a stored book with its file contents.
type Book struct {
	Metadata
	File  []byte
	Cover []byte
}

// updatableFields whitelists the columns UpdateField may touch.
var updatableFields = map[string]struct{}{
	"title":    {},
	"progress": {},
	"voice":    {},
}

// Store wraps the sqlite-backed book library.
type Store struct {
	db *sql.DB
}

// NewID returns a fresh book identifier.
func NewID() string {
	return uuid.New().String()
}

// Open opens (creating if needed) the library database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS books (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    pages INTEGER NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    voice TEXT NOT NULL DEFAULT '',
    size INTEGER NOT NULL,
    added_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS book_files (
    id TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    cover BLOB,
    FOREIGN KEY(id) REFERENCES books(id) ON DELETE CASCADE
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a book's metadata and file contents in one transaction; either
// both rows land or neither does.
func (s *Store) Put(ctx context.Context, meta Metadata, file, cover []byte) error {
	if meta.AddedAt.IsZero() {
		meta.AddedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO books(id, title, pages, progress, voice, size, added_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Title, meta.Pages, meta.Progress, meta.Voice, meta.Size,
		meta.AddedAt.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO book_files(id, data, cover) VALUES(?, ?, ?)`,
		meta.ID, file, cover); err != nil {
		return err
	}
	return tx.Commit()
}

// GetAll lists all stored books' metadata, newest first.
func (s *Store) GetAll(ctx context.Context) ([]Metadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, pages, progress, voice, size, added_at
		 FROM books ORDER BY added_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns a book with its file contents.
func (s *Store) Get(ctx context.Context, id string) (Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT b.id, b.title, b.pages, b.progress, b.voice, b.size, b.added_at, f.data, f.cover
		 FROM books b JOIN book_files f ON f.id = b.id WHERE b.id = ?`, id)

	var (
		book  Book
		added string
	)
	err := row.Scan(&book.ID, &book.Title, &book.Pages, &book.Progress,
		&book.Voice, &book.Size, &added, &book.File, &book.Cover)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Book{}, err
	}
	book.AddedAt = parseTime(added)
	return book, nil
}

// UpdateField sets one whitelisted metadata column on a book.
func (s *Store) UpdateField(ctx context.Context, id, field string, value any) error {
	if _, ok := updatableFields[field]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE books SET %s = ? WHERE id = ?`, field), value, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a book and its file contents.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanMetadata(rows *sql.Rows) (Metadata, error) {
	var (
		m     Metadata
		added string
	)
	if err := rows.Scan(&m.ID, &m.Title, &m.Pages, &m.Progress, &m.Voice, &m.Size, &added); err != nil {
		return Metadata{}, err
	}
	m.AddedAt = parseTime(added)
	return m, nil
}

func parseTime(s string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
