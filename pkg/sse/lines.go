package sse

import (
	"bytes"
	"io"
	"strings"
)

// doneMarker is the data of the end-of-stream event some gateways send.
const doneMarker = "[DONE]"

// LineReader re-frames an SSE stream as newline-delimited data: the data of
// every event becomes one line. Events without data and the "[DONE]" marker
// are skipped. The data of a final unterminated event is written without a
// trailing newline, so readers keep seeing it as an incomplete line.
type LineReader struct {
	events *Reader
	buf    bytes.Buffer
	err    error
}

// NewLineReader returns a LineReader over the SSE stream src.
func NewLineReader(src io.Reader) *LineReader {
	return &LineReader{events: NewReader(src)}
}

func (l *LineReader) Read(p []byte) (int, error) {
	for l.buf.Len() == 0 {
		if l.err != nil {
			return 0, l.err
		}
		l.fill()
	}

	return l.buf.Read(p)
}

// fill appends the next event's line to the buffer, or records the terminal
// error.
func (l *LineReader) fill() {
	ev, err := l.events.Next()
	switch {
	case err != nil:
		l.err = err
		return
	case ev == nil:
		l.err = io.EOF
		return
	}

	data := strings.TrimSpace(ev.Data)
	if data == "" || data == doneMarker {
		return
	}

	// Raw newlines cannot occur inside JSON strings, so joined data lines
	// can be flattened.
	l.buf.WriteString(strings.ReplaceAll(data, "\n", " "))
	if ev.Terminated {
		l.buf.WriteByte('\n')
	}
}
