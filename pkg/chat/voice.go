package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/farmbuddy/pkg/speech"
)

// Dictate records with rec until stop is closed and returns the final results
// joined by spaces. A nil stop ends the recording right away, which suits
// recognizers working on pre-recorded audio. Cancelling ctx cancels the
// recording.
func (s *Session) Dictate(ctx context.Context, rec speech.Recognizer, stop <-chan struct{}) (string, error) {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return "", speech.ErrAlreadyRecording
	}
	s.recording = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.recording = false
		s.mu.Unlock()
	}()

	if err := rec.Start(ctx); err != nil {
		return "", fmt.Errorf("starting recording: %w", err)
	}

	stopped := make(chan error, 1)
	go func() {
		if stop != nil {
			select {
			case <-stop:
			case <-ctx.Done():
				return
			}
		}
		stopped <- rec.Stop()
	}()

	var parts []string
	results := rec.Results()
	for {
		select {
		case <-ctx.Done():
			rec.Cancel()
			return "", ctx.Err()
		case res, ok := <-results:
			if !ok {
				if err := <-stopped; err != nil {
					return "", fmt.Errorf("recognizing speech: %w", err)
				}
				return strings.Join(parts, " "), nil
			}
			if res.Final && strings.TrimSpace(res.Text) != "" {
				parts = append(parts, strings.TrimSpace(res.Text))
			}
		}
	}
}

// Speak reads the last completed reply aloud.
func (s *Session) Speak(ctx context.Context) (*speech.Clip, error) {
	text := s.LastReply()
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoReply
	}

	clip, err := s.speaker.Speak(ctx, text, s.Language().String())
	if err != nil {
		if errors.Is(err, speech.ErrNothingToSpeak) {
			return nil, ErrNoReply
		}
		return nil, err
	}
	return clip, nil
}
