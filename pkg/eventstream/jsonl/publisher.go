// Package jsonl implements an eventstream publisher that appends one JSON
// object per event to a file.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
)

// Publisher appends reply events to a JSON lines file. It is safe for
// concurrent use.
type Publisher struct {
	mu     sync.Mutex
	f      *os.File
	enc    *json.Encoder
	closed bool
}

// NewPublisher opens path for appending, creating it and its directory when
// missing.
func NewPublisher(path string) (*Publisher, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating events directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening events log: %w", err)
	}

	return &Publisher{f: f, enc: json.NewEncoder(f)}, nil
}

// PublishReply writes event as a single line.
func (p *Publisher) PublishReply(ctx context.Context, event *eventstream.ReplyEvent) error {
	if event == nil {
		return eventstream.ErrNilReplyEvent
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return os.ErrClosed
	}
	if err := p.enc.Encode(event); err != nil {
		return fmt.Errorf("writing reply event: %w", err)
	}
	return nil
}

// Close flushes and closes the file. It is idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.f.Close()
}
