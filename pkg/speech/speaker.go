// Package speech holds the read-aloud and dictation capabilities of the chat
// client. Synthesis and recognition run on the backend; this package moves
// text and audio between the session and those endpoints.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/papercomputeco/farmbuddy/pkg/client"
	"github.com/papercomputeco/farmbuddy/pkg/logger"
)

// ErrNothingToSpeak is returned for replies that are empty once markdown is
// stripped.
var ErrNothingToSpeak = errors.New("nothing to speak")

// Clip is a synthesized reply saved to disk.
type Clip struct {
	Path        string
	ContentType string
	Size        int
}

// Speaker reads a reply aloud.
type Speaker interface {
	Speak(ctx context.Context, text, language string) (*Clip, error)
}

// Synthesizer turns text into audio. *client.Client implements it.
type Synthesizer interface {
	Speak(ctx context.Context, text, language string) (*client.Audio, error)
}

// RemoteSpeaker synthesizes through the backend and stores the audio under a
// directory.
type RemoteSpeaker struct {
	synth  Synthesizer
	dir    string
	logger *slog.Logger
}

// NewRemoteSpeaker returns a RemoteSpeaker writing clips into dir. An empty
// dir uses the OS temp directory.
func NewRemoteSpeaker(synth Synthesizer, dir string, log *slog.Logger) *RemoteSpeaker {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "farmbuddy-speech")
	}
	if log == nil {
		log = logger.Nop()
	}

	return &RemoteSpeaker{synth: synth, dir: dir, logger: log}
}

// Speak strips markdown from text, synthesizes it and writes the clip.
func (s *RemoteSpeaker) Speak(ctx context.Context, text, language string) (*Clip, error) {
	plain := PlainText(text)
	if plain == "" {
		return nil, ErrNothingToSpeak
	}

	audio, err := s.synth.Speak(ctx, plain, language)
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating speech directory: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+extensionFor(audio.ContentType))
	if err := os.WriteFile(path, audio.Data, 0o600); err != nil {
		return nil, fmt.Errorf("writing speech clip: %w", err)
	}

	s.logger.Debug("speech clip written", "path", path, "bytes", len(audio.Data))

	return &Clip{Path: path, ContentType: audio.ContentType, Size: len(audio.Data)}, nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".audio"
	}

	switch mediaType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	}

	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".audio"
}

// Nop is a Speaker that does nothing.
type Nop struct{}

func (Nop) Speak(context.Context, string, string) (*Clip, error) {
	return nil, nil
}
