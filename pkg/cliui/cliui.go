// Package cliui provides reusable terminal UI helpers (spinners, step
// indicators, themed styles) for farmbuddy CLI commands.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("150")).Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("71")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Palette is the set of chat styles for one interface theme.
type Palette struct {
	User   lipgloss.Style
	Bot    lipgloss.Style
	Dim    lipgloss.Style
	Accent lipgloss.Style
	Error  lipgloss.Style
}

// PaletteFor returns the palette for "dark" or "light". Anything else gets
// the dark palette.
func PaletteFor(theme string) Palette {
	if theme == "light" {
		return Palette{
			User:   lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			Bot:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
			Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("94")),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		}
	}

	return Palette{
		User:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true),
		Bot:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true),
		Dim:    DimStyle,
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("179")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex

	go func() {
		defer close(stopped)
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)
	<-stopped

	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
