package eventstream

import "errors"

// ErrNilReplyEvent indicates a nil reply event payload was provided to a publisher.
var ErrNilReplyEvent = errors.New("nil reply event")

// ErrPublisherClosed indicates an event was published after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// ErrQueueFull indicates an asynchronous publisher dropped an event because
// its queue was full.
var ErrQueueFull = errors.New("event queue full")
