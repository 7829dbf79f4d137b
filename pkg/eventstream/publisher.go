package eventstream

import (
	"context"
	"errors"
)

// Publisher publishes reply events to an event stream backend.
type Publisher interface {
	PublishReply(ctx context.Context, event *ReplyEvent) error
	Close() error
}

// Multi fans every event out to a set of publishers.
type Multi struct {
	pubs []Publisher
}

// NewMulti returns a Publisher delivering to each of pubs in order.
func NewMulti(pubs ...Publisher) *Multi {
	return &Multi{pubs: pubs}
}

// PublishReply delivers event to every publisher, joining their errors.
func (m *Multi) PublishReply(ctx context.Context, event *ReplyEvent) error {
	if event == nil {
		return ErrNilReplyEvent
	}

	var errs []error
	for _, p := range m.pubs {
		errs = append(errs, p.PublishReply(ctx, event))
	}
	return errors.Join(errs...)
}

// Close closes every publisher, joining their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, p := range m.pubs {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
