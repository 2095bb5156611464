package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var keywordStyle = lipgloss.NewStyle().Foreground(keywordColor())

func keywordColor() lipgloss.Color {
	if termenv.HasDarkBackground() {
		return lipgloss.Color("#ECFD65")
	}
	return lipgloss.Color("#04B575")
}

// keyword renders a highlighted term for help text.
func keyword(s string) string {
	return keywordStyle.Render(s)
}

// paragraph formats help text: indented and wrapped to the terminal width.
func paragraph(s string) string {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w < width {
		width = w
	}
	return wordwrap.String(indent.String(s, 2), width-4)
}
