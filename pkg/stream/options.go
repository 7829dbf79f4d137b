package stream

import (
	"log/slog"
)

// TrailingPolicy decides what happens to bytes left in the line buffer when
// the source ends without a final newline.
type TrailingPolicy int

const (
	// TrailingDrop discards an unterminated final line. Only newline
	// terminated lines are ever parsed.
	TrailingDrop TrailingPolicy = iota

	// TrailingFlush parses an unterminated final line as if it ended with a
	// newline.
	TrailingFlush
)

func (p TrailingPolicy) String() string {
	switch p {
	case TrailingDrop:
		return "drop"
	case TrailingFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// Option configures a Decoder created with NewDecoder.
type Option func(*Decoder)

// WithTrailingPolicy sets the end-of-stream policy. Defaults to TrailingDrop.
func WithTrailingPolicy(p TrailingPolicy) Option {
	return func(d *Decoder) {
		d.trailing = p
	}
}

// WithLogger sets the logger used to report dropped lines.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithErrorAnnotation overrides how an upstream Error envelope is appended
// to the accumulated text.
func WithErrorAnnotation(fn func(message string) string) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.annotate = fn
		}
	}
}

// WithFinalizer registers fn to run once with the final accumulated text when
// the stream completes normally. It never runs on transport failure or
// cancellation.
func WithFinalizer(fn func(text string)) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.finalizers = append(d.finalizers, fn)
		}
	}
}

// DefaultErrorAnnotation renders an upstream error inline.
func DefaultErrorAnnotation(message string) string {
	return "\n[Error: " + message + "]"
}
