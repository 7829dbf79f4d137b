package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	// ErrAlreadyRecording is returned by Start while a recording is active.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by Stop without a prior Start.
	ErrNotRecording = errors.New("not recording")
)

// Result is recognized speech. Final results are not revised later.
type Result struct {
	Text  string
	Final bool
}

// Recognizer turns the user's speech into text. Results is closed once the
// recognizer is stopped or cancelled.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop() error
	Cancel()
	Results() <-chan Result
}

// Transcriber turns recorded audio into text. *client.Client implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, audio io.Reader, language string) (string, error)
}

// FileRecognizer recognizes a pre-recorded audio file through the backend.
// Start checks the file; Stop uploads it and delivers a single final Result.
type FileRecognizer struct {
	transcriber Transcriber
	path        string
	language    string

	mu        sync.Mutex
	ctx       context.Context
	recording bool
	finished  bool
	results   chan Result
}

// NewFileRecognizer returns a recognizer for the audio file at path.
func NewFileRecognizer(t Transcriber, path, language string) *FileRecognizer {
	return &FileRecognizer{
		transcriber: t,
		path:        path,
		language:    language,
		results:     make(chan Result, 1),
	}
}

func (r *FileRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrAlreadyRecording
	}
	if r.finished {
		return fmt.Errorf("recognizer already used")
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("opening recording: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("recording %s is a directory", r.path)
	}

	r.ctx = ctx
	r.recording = true
	return nil
}

func (r *FileRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return ErrNotRecording
	}
	r.recording = false
	r.finished = true
	defer close(r.results)

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	text, err := r.transcriber.Transcribe(r.ctx, r.path, f, r.language)
	if err != nil {
		return fmt.Errorf("transcribing %s: %w", r.path, err)
	}

	if text = strings.TrimSpace(text); text != "" {
		r.results <- Result{Text: text, Final: true}
	}
	return nil
}

func (r *FileRecognizer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	r.recording = false
	r.finished = true
	close(r.results)
}

func (r *FileRecognizer) Results() <-chan Result {
	return r.results
}
