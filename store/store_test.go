package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMeta(id string) Metadata {
	return Metadata{
		ID:      id,
		Title:   "A Sample Book",
		Pages:   12,
		Voice:   "amber",
		Size:    2048,
		AddedAt: time.Now().UTC(),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := NewID()
	file := []byte("pdf bytes")
	cover := []byte{0xff, 0xd8, 0xff}
	if err := s.Put(ctx, sampleMeta(id), file, cover); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	book, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if book.Title != "A Sample Book" || book.Pages != 12 || book.Progress != 0 {
		t.Errorf("metadata mismatch: %+v", book.Metadata)
	}
	if !bytes.Equal(book.File, file) {
		t.Error("file contents mismatch")
	}
	if !bytes.Equal(book.Cover, cover) {
		t.Error("cover contents mismatch")
	}
}

func TestPutNilCover(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := NewID()
	if err := s.Put(ctx, sampleMeta(id), []byte("data"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	book, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if book.Cover != nil {
		t.Errorf("cover = %v, want nil", book.Cover)
	}
}

func TestPutDuplicateRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := NewID()
	if err := s.Put(ctx, sampleMeta(id), []byte("one"), nil); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := s.Put(ctx, sampleMeta(id), []byte("two"), nil); err == nil {
		t.Fatal("duplicate Put succeeded")
	}

	// The failed Put must not have replaced the original file row.
	book, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(book.File, []byte("one")) {
		t.Errorf("file = %q, want original contents", book.File)
	}
}

func TestGetAllOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := sampleMeta(NewID())
	older.Title = "Older"
	older.AddedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleMeta(NewID())
	newer.Title = "Newer"

	if err := s.Put(ctx, older, []byte("a"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, newer, []byte("b"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d books, want 2", len(all))
	}
	if all[0].Title != "Newer" || all[1].Title != "Older" {
		t.Errorf("order = [%s, %s], want newest first", all[0].Title, all[1].Title)
	}
}

func TestUpdateField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := NewID()
	if err := s.Put(ctx, sampleMeta(id), []byte("data"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := s.UpdateField(ctx, id, "progress", 7); err != nil {
		t.Fatalf("UpdateField failed: %v", err)
	}
	if err := s.UpdateField(ctx, id, "voice", "onyx"); err != nil {
		t.Fatalf("UpdateField failed: %v", err)
	}

	book, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if book.Progress != 7 || book.Voice != "onyx" {
		t.Errorf("progress=%d voice=%q, want 7/onyx", book.Progress, book.Voice)
	}
}

func TestUpdateFieldRejectsUnknownColumn(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := NewID()
	if err := s.Put(ctx, sampleMeta(id), []byte("data"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for _, field := range []string{"id", "size", "added_at", "progress; DROP TABLE books"} {
		if err := s.UpdateField(ctx, id, field, 1); !errors.Is(err, ErrInvalidField) {
			t.Errorf("UpdateField(%q) error = %v, want ErrInvalidField", field, err)
		}
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := NewID()
	if err := s.Put(ctx, sampleMeta(id), []byte("data"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateField(ctx, "missing", "progress", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateField error = %v, want ErrNotFound", err)
	}
}
