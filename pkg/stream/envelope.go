// Package stream decodes the newline-delimited JSON reply stream sent by the
// FarmBuddy backend for a chat request.
//
// Each line of the response body carries exactly one envelope:
//
//	{"chunk": "<delta text>"}
//	{"full_text": "<complete text>"}
//	{"error": "<message>"}
//
// A Decoder turns the raw body into a sequence of Snapshots holding the
// accumulated reply text so far.
package stream

import (
	"encoding/json"
	"fmt"
)

// Envelope is one decoded line of the reply stream. It is a closed union:
// the only implementations are Delta, FullText, Error and Unrecognized.
type Envelope interface {
	envelope()
}

// Delta is an incremental fragment appended to the accumulated reply.
type Delta struct {
	Text string
}

// FullText replaces the accumulated reply wholesale.
type FullText struct {
	Text string
}

// Error is an advisory failure reported by the backend mid-stream.
type Error struct {
	Message string
}

// Unrecognized is a well-formed JSON object carrying none of the known keys.
type Unrecognized struct{}

func (Delta) envelope()        {}
func (FullText) envelope()     {}
func (Error) envelope()        {}
func (Unrecognized) envelope() {}

// wireEnvelope is the schema a line must satisfy. Pointer fields distinguish
// an absent key from an empty string.
type wireEnvelope struct {
	Chunk    *string `json:"chunk,omitempty"`
	FullText *string `json:"full_text,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// ParseEnvelope decodes a single line into an Envelope.
//
// When several keys are present the first of chunk, error, full_text wins.
// Anything that is not a JSON object with string values for the known keys
// is rejected with an error.
func ParseEnvelope(line []byte) (Envelope, error) {
	var wire *wireEnvelope
	if err := json.Unmarshal(line, &wire); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}

	switch {
	case wire == nil:
		return Unrecognized{}, nil
	case wire.Chunk != nil:
		return Delta{Text: *wire.Chunk}, nil
	case wire.Error != nil:
		return Error{Message: *wire.Error}, nil
	case wire.FullText != nil:
		return FullText{Text: *wire.FullText}, nil
	default:
		return Unrecognized{}, nil
	}
}

// MarshalEnvelope encodes env as a single JSON object without a trailing newline.
func MarshalEnvelope(env Envelope) ([]byte, error) {
	var wire wireEnvelope

	switch e := env.(type) {
	case Delta:
		wire.Chunk = &e.Text
	case FullText:
		wire.FullText = &e.Text
	case Error:
		wire.Error = &e.Message
	case Unrecognized:
	default:
		return nil, fmt.Errorf("unknown envelope type %T", env)
	}

	return json.Marshal(wire)
}
