package main

import (
	"testing"
	"time"

	"github.com/voxpage/voxpage/store"
)

func testBooks() []store.Metadata {
	now := time.Now()
	return []store.Metadata{
		{ID: "f2a1c3d4-0000-0000-0000-000000000000", Title: "The Go Programming Language", AddedAt: now},
		{ID: "0b9e8d7c-0000-0000-0000-000000000000", Title: "Moby Dick", AddedAt: now.Add(-time.Hour)},
		{ID: "11223344-0000-0000-0000-000000000000", Title: "A Tale of Two Cities", AddedAt: now.Add(-2 * time.Hour)},
	}
}

func TestMatchBook(t *testing.T) {
	books := testBooks()

	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr bool
	}{
		{name: "empty query picks newest", query: "", wantID: books[0].ID},
		{name: "full id", query: books[1].ID, wantID: books[1].ID},
		{name: "id prefix", query: "0b9e8d7c", wantID: books[1].ID},
		{name: "short id prefix", query: "1122", wantID: books[2].ID},
		{name: "fuzzy title", query: "moby", wantID: books[1].ID},
		{name: "fuzzy partial title", query: "tale cities", wantID: books[2].ID},
		{name: "no match", query: "zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchBook(books, tt.query)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("matchBook(%q) succeeded with %q, want error", tt.query, got.Title)
				}
				return
			}
			if err != nil {
				t.Fatalf("matchBook(%q) failed: %v", tt.query, err)
			}
			if got.ID != tt.wantID {
				t.Errorf("matchBook(%q) = %q, want %q", tt.query, got.ID, tt.wantID)
			}
		})
	}
}

func TestMatchBookEmptyLibrary(t *testing.T) {
	if _, err := matchBook(nil, "anything"); err == nil {
		t.Error("matchBook on empty library succeeded")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("f2a1c3d4-0000"); got != "f2a1c3d4" {
		t.Errorf("shortID = %q, want f2a1c3d4", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q, want abc", got)
	}
}
