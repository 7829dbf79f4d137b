// Package async decouples reply event publishing from the chat hot path.
//
// A Publisher queues events and hands them to a small pool of workers that
// forward them to a wrapped eventstream.Publisher, so a slow sink never holds
// up the rendering of the next reply.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Config is the configuration options for the async publisher.
type Config struct {
	// Publisher receives every queued event. It is closed by Close.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	Logger *slog.Logger
}

type job struct {
	ctx   context.Context
	event *eventstream.ReplyEvent
}

// Publisher queues reply events for background delivery.
type Publisher struct {
	next   eventstream.Publisher
	queue  chan job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a Publisher and starts its workers.
func NewPublisher(c Config) (*Publisher, error) {
	if c.Publisher == nil {
		return nil, errors.New("async publisher requires a downstream publisher")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	p := &Publisher{
		next:   c.Publisher,
		queue:  make(chan job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// PublishReply queues event without blocking. It returns
// eventstream.ErrQueueFull when the event had to be dropped.
func (p *Publisher) PublishReply(ctx context.Context, event *eventstream.ReplyEvent) error {
	if event == nil {
		return eventstream.ErrNilReplyEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return eventstream.ErrPublisherClosed
	}

	select {
	case p.queue <- job{ctx: context.WithoutCancel(ctx), event: event}:
		p.logger.Debug("reply event queued", "event_id", event.EventID, "event_type", event.EventType)
		return nil
	default:
		p.logger.Warn("reply event dropped, queue full", "event_id", event.EventID, "event_type", event.EventType)
		return eventstream.ErrQueueFull
	}
}

// Close stops accepting events, waits for queued ones to be delivered and
// then closes the downstream publisher. It is idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.next.Close()
}

func (p *Publisher) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", "worker_id", id)

	for j := range p.queue {
		if err := p.next.PublishReply(j.ctx, j.event); err != nil {
			p.logger.Warn("publishing reply event failed", "event_id", j.event.EventID, "error", err)
			continue
		}
		p.logger.Debug("reply event published", "event_id", j.event.EventID)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}
