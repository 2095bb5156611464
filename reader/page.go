package reader

import "strings"

// Page is one unit of document text with its derived word layout. Paragraph
// boundaries are preserved for rendering, but word indices run continuously
// across paragraphs within the page.
type Page struct {
	Text       string
	Paragraphs [][]string // Words grouped by paragraph
	Words      []string   // All words in page order
}

// NewPage splits page text into paragraphs on newlines and words on
// whitespace.
func NewPage(text string) Page {
	p := Page{Text: text}
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		p.Paragraphs = append(p.Paragraphs, words)
		p.Words = append(p.Words, words...)
	}
	return p
}

// Empty reports whether the page has no speakable text.
func (p Page) Empty() bool {
	return len(p.Words) == 0
}

// WordCount returns the number of words on the page.
func (p Page) WordCount() int {
	return len(p.Words)
}
