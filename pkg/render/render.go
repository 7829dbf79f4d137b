// Package render turns accumulated reply text into terminal output.
//
// Every render starts from the whole reply text, never from a delta, so a
// half-received markdown construct is re-rendered correctly once the rest of
// it arrives.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const (
	// StyleAuto follows the interface theme.
	StyleAuto = "auto"

	// StylePlain disables markdown rendering.
	StylePlain = "plain"
)

// Renderer converts markdown to displayable text.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Plain returns the markdown unchanged.
type Plain struct{}

func (Plain) Render(markdown string) (string, error) {
	return markdown, nil
}

// Markdown renders through glamour.
type Markdown struct {
	tr *glamour.TermRenderer
}

// NewMarkdown builds a glamour renderer for a standard style name such as
// "dark", "light", "notty" or "dracula".
func NewMarkdown(style string, wordWrap uint) (*Markdown, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(int(wordWrap)),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s markdown renderer: %w", style, err)
	}

	return &Markdown{tr: tr}, nil
}

func (m *Markdown) Render(markdown string) (string, error) {
	out, err := m.tr.Render(markdown)
	if err != nil {
		return markdown, fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// New resolves a configured style against the theme. StyleAuto picks the
// glamour style matching the theme on a terminal and "notty" otherwise.
func New(style, theme string, wordWrap uint, tty bool) (Renderer, error) {
	switch style {
	case StylePlain:
		return Plain{}, nil
	case StyleAuto, "":
		if !tty {
			style = "notty"
		} else {
			style = ThemeStyle(theme)
		}
	}

	return NewMarkdown(style, wordWrap)
}

// ThemeStyle maps an interface theme to its glamour style.
func ThemeStyle(theme string) string {
	if theme == "light" {
		return "light"
	}
	return "dark"
}
