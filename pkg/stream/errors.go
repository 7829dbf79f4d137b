package stream

import (
	"errors"
	"fmt"
)

// ErrDecoderClosed is returned by Next after Close released the decoder
// before the stream finished.
var ErrDecoderClosed = errors.New("stream decoder closed")

// TransportError reports that reading the underlying byte stream failed.
// It is terminal for the session.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reading reply stream: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedLineError describes a line that could not be parsed as an
// envelope. The decoder logs and drops these; it never returns one from Next.
type MalformedLineError struct {
	Line string
	Err  error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed stream line %q: %v", e.Line, e.Err)
}

func (e *MalformedLineError) Unwrap() error {
	return e.Err
}
