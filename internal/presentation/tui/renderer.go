package tui

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the column prompts are wrapped at.
const DefaultWordWrap = 80

// NewRenderer returns a function that renders markdown prompts using glamour.
// Vocabulary phrases are usually plain text, which renders as a paragraph.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(DefaultWordWrap),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
