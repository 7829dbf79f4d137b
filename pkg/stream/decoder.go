package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/papercomputeco/farmbuddy/pkg/logger"
	"github.com/papercomputeco/farmbuddy/pkg/utils"
)

// Snapshot is the accumulated reply after applying one envelope.
type Snapshot struct {
	// Text is the full reply text so far.
	Text string

	// Envelope is the envelope that produced this snapshot.
	Envelope Envelope

	// Seq numbers snapshots from 1 within a session.
	Seq int
}

// Stats counts what a Decoder saw over its lifetime.
type Stats struct {
	Lines           int
	Blank           int
	Malformed       int
	Unrecognized    int
	Deltas          int
	FullTexts       int
	UpstreamErrors  int
	TrailingDropped bool
}

// Decoder reads a newline-delimited JSON reply stream and yields the running
// accumulated text. A Decoder is single use and must not be shared between
// goroutines.
//
// ┌───────────┐   ┌──────────────┐   ┌─────────────┐   ┌──────────┐
// │ io.Reader │──▶│ UTF-8 decode │──▶│ line buffer │──▶│ envelope │──▶ Snapshot
// └───────────┘   └──────────────┘   └─────────────┘   └──────────┘
type Decoder struct {
	src    io.Reader
	reader *bufio.Reader

	text strings.Builder
	seq  int

	trailing   TrailingPolicy
	annotate   func(string) string
	finalizers []func(string)
	logger     *slog.Logger

	eof       bool
	done      bool
	err       error
	stats     Stats
	closeOnce sync.Once
	closeErr  error
}

// NewDecoder returns a Decoder reading from src. If src is an io.Closer it is
// closed at end of stream, by Close, and when a context passed to Next is
// cancelled.
func NewDecoder(src io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		src:      src,
		reader:   bufio.NewReader(transform.NewReader(src, unicode.UTF8.NewDecoder())),
		trailing: TrailingDrop,
		annotate: DefaultErrorAnnotation,
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Next blocks until the next snapshot is available. It returns nil, nil once
// the stream completed normally. After a terminal error every further call
// returns the same error.
func (d *Decoder) Next(ctx context.Context) (*Snapshot, error) {
	if d.done {
		return nil, d.err
	}

	stop := context.AfterFunc(ctx, d.closeSource)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			d.abort(err, true)
			d.closeSource()
			return nil, err
		}

		if d.eof {
			d.finish()
			return nil, nil
		}

		line, err := d.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					d.abort(ctxErr, true)
					d.closeSource()
					return nil, ctxErr
				}

				terr := &TransportError{Err: err}
				d.abort(terr, false)
				return nil, terr
			}

			d.eof = true
			if strings.TrimSpace(line) == "" {
				continue
			}

			if d.trailing == TrailingDrop {
				d.stats.TrailingDropped = true
				d.logger.Debug("dropping unterminated trailing line",
					"line", utils.Truncate(line, 120),
				)
				continue
			}
		} else {
			line = line[:len(line)-1]
		}

		if snap := d.apply(line); snap != nil {
			return snap, nil
		}
	}
}

// Run drives the decoder to completion, calling fn for every snapshot, and
// returns the final accumulated text. An error from fn stops the session and
// is returned as is.
func (d *Decoder) Run(ctx context.Context, fn func(Snapshot) error) (string, error) {
	for {
		snap, err := d.Next(ctx)
		if err != nil {
			return d.Text(), err
		}
		if snap == nil {
			return d.Text(), nil
		}

		if fn == nil {
			continue
		}
		if err := fn(*snap); err != nil {
			d.abort(err, false)
			_ = d.Close()
			return d.Text(), err
		}
	}
}

// Text returns the accumulated reply so far. After cancellation it is empty.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Stats returns counters collected so far.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Done reports whether the session has terminated.
func (d *Decoder) Done() bool {
	return d.done
}

// Close releases the line buffer and closes the source when it is an
// io.Closer. Closing an unfinished decoder ends the session without running
// finalizers. Close is idempotent.
func (d *Decoder) Close() error {
	if !d.done {
		d.abort(ErrDecoderClosed, false)
	}

	d.closeSource()
	return d.closeErr
}

// apply parses one complete line and folds it into the accumulated text.
// It returns nil when the line produces no snapshot.
func (d *Decoder) apply(line string) *Snapshot {
	d.stats.Lines++

	if strings.TrimSpace(line) == "" {
		d.stats.Blank++
		return nil
	}

	env, err := ParseEnvelope([]byte(line))
	if err != nil {
		d.stats.Malformed++
		d.logger.Warn("dropping malformed stream line",
			"error", &MalformedLineError{Line: utils.Truncate(line, 120), Err: err},
		)
		return nil
	}

	switch e := env.(type) {
	case Delta:
		d.stats.Deltas++
		d.text.WriteString(e.Text)
	case FullText:
		d.stats.FullTexts++
		d.text.Reset()
		d.text.WriteString(e.Text)
	case Error:
		d.stats.UpstreamErrors++
		d.logger.Warn("upstream reported an error", "message", e.Message)
		d.text.WriteString(d.annotate(e.Message))
	case Unrecognized:
		d.stats.Unrecognized++
		d.logger.Debug("ignoring unrecognized envelope", "line", utils.Truncate(line, 120))
		return nil
	}

	d.seq++
	return &Snapshot{
		Text:     d.text.String(),
		Envelope: env,
		Seq:      d.seq,
	}
}

// finish terminates a session that reached end of stream and runs the
// finalizers exactly once.
func (d *Decoder) finish() {
	if d.done {
		return
	}

	d.done = true
	d.reader = nil
	d.closeSource()

	final := d.text.String()
	for _, fn := range d.finalizers {
		fn(final)
	}
}

// abort terminates the session with err. When discard is set the
// accumulated text is dropped as well.
func (d *Decoder) abort(err error, discard bool) {
	if d.done {
		return
	}

	d.done = true
	d.err = err
	d.reader = nil
	if discard {
		d.text.Reset()
	}
}

func (d *Decoder) closeSource() {
	d.closeOnce.Do(func() {
		if c, ok := d.src.(io.Closer); ok {
			d.closeErr = c.Close()
		}
	})
}
