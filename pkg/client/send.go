package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/papercomputeco/farmbuddy/pkg/sse"
	"github.com/papercomputeco/farmbuddy/pkg/stream"
)

// Message is one user turn.
type Message struct {
	Text     string `json:"message"`
	Language string `json:"language,omitempty"`
}

// Image is a photo attached to a user turn.
type Image struct {
	Name string
	Data []byte
}

// wholeReply is the non-streaming reply shape: the whole answer in one
// object.
type wholeReply struct {
	Success  *bool  `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error"`
	ImageURL string `json:"image_url,omitempty"`
}

// SendMessage posts msg and returns a Decoder over the reply stream. The
// caller must Close the Decoder.
//
// A backend that answers with a single application/json object instead of a
// line stream is adapted into a one-line stream carrying the whole answer.
func (c *Client) SendMessage(ctx context.Context, msg Message, opts ...stream.Option) (*stream.Decoder, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshaling message: %w", err)
	}

	resp, err := c.post(ctx, "/chat/send/", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	src, err := c.replyStream(resp, "/chat/send/")
	if err != nil {
		return nil, err
	}

	return stream.NewDecoder(src, opts...), nil
}

// UploadImage posts img with an optional caption. The backend answers in one
// piece; the answer is returned as a one-line stream so it flows through the
// same decoding path as text replies.
func (c *Client) UploadImage(ctx context.Context, img Image, caption string, opts ...stream.Option) (*stream.Decoder, error) {
	if err := ValidateImage(img.Data); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("image", img.Name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := fw.Write(img.Data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.WriteField("message", caption); err != nil {
		return nil, fmt.Errorf("writing caption: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	resp, err := c.post(ctx, "/chat/upload/", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reply wholeReply
	if err := decodeReply(resp, "/chat/upload/", &reply); err != nil {
		return nil, err
	}
	c.logger.Debug("image uploaded", "image_url", reply.ImageURL)

	return stream.NewDecoder(wholeReplyStream(reply), opts...), nil
}

// replyStream checks the response status and returns the body as a line
// stream.
func (c *Client) replyStream(resp *http.Response, path string) (io.ReadCloser, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeReply(resp, path, nil)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
	case "text/event-stream":
		c.logger.Debug("reading event stream reply", "path", path)
		return &readCloser{Reader: sse.NewLineReader(resp.Body), Closer: resp.Body}, nil
	default:
		return resp.Body, nil
	}

	// Peek at the first line: a whole reply object is adapted, anything else
	// is a line stream served with a loose content type.
	br := bufio.NewReader(resp.Body)
	first, err := br.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		resp.Body.Close()
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	var reply wholeReply
	if json.Unmarshal(first, &reply) == nil && reply.Success != nil {
		resp.Body.Close()
		c.logger.Debug("adapting whole reply", "path", path)
		return wholeReplyStream(reply), nil
	}

	return &readCloser{
		Reader: io.MultiReader(bytes.NewReader(first), br),
		Closer: resp.Body,
	}, nil
}

// wholeReplyStream encodes a whole reply as a single-envelope line stream.
func wholeReplyStream(reply wholeReply) io.ReadCloser {
	var buf bytes.Buffer
	enc := stream.NewEncoder(&buf)

	var env stream.Envelope = stream.FullText{Text: reply.Response}
	if reply.Success != nil && !*reply.Success {
		env = stream.Error{Message: reply.Error}
	}

	// Encoding a closed set of string-only envelopes into a bytes.Buffer
	// cannot fail.
	_ = enc.Encode(env)

	return io.NopCloser(&buf)
}

type readCloser struct {
	io.Reader
	io.Closer
}
