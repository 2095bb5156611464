// Package extract turns PDF files into the page texts, title, and cover
// image that the rest of voxpage works with.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// Document is the result of extracting a PDF file.
type Document struct {
	Title      string   // Document title from the Info dictionary, may be empty
	CoverImage []byte   // First image found on the first page, may be nil
	PageTexts  []string // Plain text per page, in order
}

const (
	readyTimeout = 5 * time.Second
	readyPoll    = 100 * time.Millisecond
)

// engineReady reports whether the parsing engine works. Overridable in tests.
var engineReady = selfCheck

var (
	selfCheckOnce sync.Once
	selfCheckOK   bool
)

// selfCheck parses a minimal in-memory document once and caches the result.
func selfCheck() bool {
	selfCheckOnce.Do(func() {
		doc := minimalPDF()
		_, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
		selfCheckOK = err == nil
	})
	return selfCheckOK
}

// WaitReady blocks until the extraction engine is usable, polling every
// 100ms for up to 5 seconds. It returns ErrEngineUnavailable on timeout and
// the context error if the context is cancelled first.
func WaitReady(ctx context.Context) error {
	deadline := time.Now().Add(readyTimeout)
	for {
		if engineReady() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrEngineUnavailable
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrEngineUnavailable, ctx.Err())
		case <-time.After(readyPoll):
		}
	}
}

// Extract parses a PDF file and returns its title, cover image, and page
// texts. Malformed input yields ErrExtractionFailed.
func Extract(fileBytes []byte) (doc Document, err error) {
	// The parser panics on some malformed inputs rather than returning an
	// error, so the whole walk runs under a recover.
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	doc.Title = documentTitle(r)

	total := r.NumPage()
	doc.PageTexts = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			doc.PageTexts = append(doc.PageTexts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not lose the whole book.
			log.Debug("page text extraction failed", "page", i, "error", err)
			text = ""
		}
		doc.PageTexts = append(doc.PageTexts, strings.TrimSpace(text))
	}

	if total > 0 {
		doc.CoverImage = coverImage(r.Page(1))
	}
	return doc, nil
}

// documentTitle reads the Info dictionary's Title entry, if any.
func documentTitle(r *pdf.Reader) string {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key("Title").Text())
}

// coverImage returns the first image XObject on the page, or nil. Image
// streams use codecs the parser may not support, so this is best effort.
func coverImage(page pdf.Page) (img []byte) {
	defer func() {
		if recover() != nil {
			img = nil
		}
	}()

	xobjects := page.V.Key("Resources").Key("XObject")
	if xobjects.IsNull() {
		return nil
	}
	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.Key("Subtype").Name() != "Image" {
			continue
		}
		data, err := io.ReadAll(obj.Reader())
		if err != nil || len(data) == 0 {
			continue
		}
		return data
	}
	return nil
}
