package stream

import (
	"io"
)

// Encoder writes envelopes as newline-delimited JSON. It is the inverse of
// Decoder and is used to adapt whole-shot replies into a stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes env followed by a newline.
func (e *Encoder) Encode(env Envelope) error {
	data, err := MarshalEnvelope(env)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = e.w.Write(data)
	return err
}
