package render

import (
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// View repaints the bot reply in place as snapshots arrive. On a terminal each
// Update clears what the previous one drew and draws the fresh render of the
// whole text. Elsewhere only Finish writes, once.
type View struct {
	w     io.Writer
	out   *termenv.Output
	r     Renderer
	tty   bool
	lines int
	last  string
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithTTY overrides terminal detection.
func WithTTY(tty bool) ViewOption {
	return func(v *View) {
		v.tty = tty
	}
}

// NewView returns a View writing to w.
func NewView(w io.Writer, r Renderer, opts ...ViewOption) *View {
	v := &View{
		w:   w,
		out: termenv.NewOutput(w),
		r:   r,
		tty: IsTerminal(w),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Update shows text as the current reply.
func (v *View) Update(text string) error {
	if !v.tty || text == v.last {
		v.last = text
		return nil
	}

	return v.paint(text)
}

// Finish shows the final reply. An empty text still clears a partial render.
func (v *View) Finish(text string) error {
	if v.tty {
		return v.paint(text)
	}

	v.last = text
	if text == "" {
		return nil
	}

	rendered, err := v.r.Render(text)
	if err != nil {
		return err
	}
	_, err = io.WriteString(v.w, ensureNewline(rendered))
	return err
}

// Reset forgets what was drawn so the next reply starts below it.
func (v *View) Reset() {
	v.lines = 0
	v.last = ""
}

func (v *View) paint(text string) error {
	rendered, err := v.r.Render(text)
	if err != nil {
		return err
	}
	rendered = ensureNewline(rendered)

	if v.lines > 0 {
		v.out.ClearLines(v.lines)
		// ClearLines leaves the cursor on the first cleared line; return to
		// column zero before writing.
		_, _ = io.WriteString(v.w, "\r")
	}

	if _, err := io.WriteString(v.w, rendered); err != nil {
		return err
	}

	v.lines = strings.Count(rendered, "\n")
	v.last = text
	return nil
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or fallback when w is not a terminal.
func Width(w io.Writer, fallback uint) uint {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return uint(width)
}

// WrapFor clamps a configured word wrap to the terminal width of w.
func WrapFor(w io.Writer, configured uint) uint {
	width := Width(w, configured)
	if configured == 0 || width < configured {
		return width
	}
	return configured
}
