package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
)

// Transcribe sends recorded audio and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, name string, audio io.Reader, language string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("audio", filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return "", fmt.Errorf("writing language: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	resp, err := c.post(ctx, "/chat/api/transcribe/", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Text string `json:"text"`
	}
	if err := decodeReply(resp, "/chat/api/transcribe/", &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Audio is synthesized speech.
type Audio struct {
	ContentType string
	Data        []byte
}

// Speak asks the backend to synthesize text in language.
func (c *Client) Speak(ctx context.Context, text, language string) (*Audio, error) {
	in, err := json.Marshal(struct {
		Text     string `json:"text"`
		Language string `json:"language,omitempty"`
	}{Text: text, Language: language})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.post(ctx, "/chat/api/speak/", "application/json", bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeReply(resp, "/chat/api/speak/", nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	return &Audio{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}
