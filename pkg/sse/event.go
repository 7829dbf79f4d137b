// Package sse reads Server-Sent Events reply streams.
//
// Some FarmBuddy deployments sit behind gateways that stream replies as
// text/event-stream, with one JSON envelope in the data of each event. The
// package parses such streams and turns them back into the newline-delimited
// form the reply decoder consumes.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event is a single parsed SSE event, delimited by a blank line in the byte
// stream.
type Event struct {
	// Type is the "event:" field. Empty means the default "message" type.
	Type string

	// Data is the contents of all "data:" lines, joined with "\n".
	Data string

	// ID is the last "id:" field, if present.
	ID string

	// Terminated is false for a final event the stream ended in the middle of.
	Terminated bool
}
