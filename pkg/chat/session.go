// Package chat holds the state of one interactive FarmBuddy session and the
// operations the command layer drives it with.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/farmbuddy/pkg/client"
	"github.com/papercomputeco/farmbuddy/pkg/dotdir"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/nop"
	"github.com/papercomputeco/farmbuddy/pkg/i18n"
	"github.com/papercomputeco/farmbuddy/pkg/logger"
	"github.com/papercomputeco/farmbuddy/pkg/speech"
	"github.com/papercomputeco/farmbuddy/pkg/stream"
)

var (
	// ErrBusy is returned while another request of the session is in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrEmptyMessage is returned by Send with no text and no image.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNoReply is returned by Speak before any reply completed.
	ErrNoReply = errors.New("no reply to read aloud")

	// ErrNoConversation is returned by conversation operations without an id.
	ErrNoConversation = errors.New("no active conversation")
)

const (
	themeDark  = "dark"
	themeLight = "light"
)

// Backend is the part of the FarmBuddy API a session uses. *client.Client
// implements it.
type Backend interface {
	SendMessage(ctx context.Context, msg client.Message, opts ...stream.Option) (*stream.Decoder, error)
	UploadImage(ctx context.Context, img client.Image, caption string, opts ...stream.Option) (*stream.Decoder, error)
	NewConversation(ctx context.Context) (int64, error)
	OpenConversation(ctx context.Context, id int64) error
	RenameConversation(ctx context.Context, id int64, title string) (string, error)
	DeleteConversation(ctx context.Context, id int64) error
	ShareLocation(ctx context.Context, lat, lon float64) (*client.Weather, error)
}

// View displays the reply being received. *render.View implements it.
type View interface {
	Update(text string) error
	Finish(text string) error
	Reset()
}

// Config holds Session dependencies and initial state.
type Config struct {
	Backend   Backend
	Speaker   speech.Speaker
	Publisher eventstream.Publisher
	Logger    *slog.Logger

	Language       i18n.Lang
	Theme          string
	ConversationID int64
	AutoSpeak      bool
	FlushTrailing  bool
}

// Session is the explicit UI state of one chat: the active conversation, the
// reply language, the theme, a pending photo, the recording flag and the
// transcript shown so far. It is safe for concurrent use; requests are
// serialized and overlapping ones fail with ErrBusy.
type Session struct {
	id        string
	backend   Backend
	speaker   speech.Speaker
	publisher eventstream.Publisher
	logger    *slog.Logger
	trailing  stream.TrailingPolicy
	autoSpeak bool

	busy atomic.Bool

	mu             sync.Mutex
	conversationID int64
	title          string
	language       i18n.Lang
	theme          string
	image          *client.Image
	recording      bool
	transcript     []Message
	lastReply      string
}

// New creates a Session.
func New(cfg Config) (*Session, error) {
	if cfg.Backend == nil {
		return nil, errors.New("chat session requires a backend")
	}

	s := &Session{
		id:             uuid.NewString(),
		backend:        cfg.Backend,
		speaker:        cfg.Speaker,
		publisher:      cfg.Publisher,
		logger:         cfg.Logger,
		autoSpeak:      cfg.AutoSpeak,
		conversationID: cfg.ConversationID,
		language:       i18n.Default,
		theme:          themeDark,
	}

	if s.speaker == nil {
		s.speaker = speech.Nop{}
	}
	if s.publisher == nil {
		s.publisher = nop.NewPublisher()
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With("session", s.id)

	if cfg.FlushTrailing {
		s.trailing = stream.TrailingFlush
	}

	if cfg.Language != "" {
		lang, err := i18n.Parse(string(cfg.Language))
		if err != nil {
			return nil, err
		}
		s.language = lang
	}

	if cfg.Theme != "" {
		if err := s.SetTheme(cfg.Theme); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// acquire marks the session busy for the duration of one request.
func (s *Session) acquire() (release func(), err error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { s.busy.Store(false) }, nil
}

// ID returns the client-side session id.
func (s *Session) ID() string {
	return s.id
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) ConversationID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Language() i18n.Lang {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *Session) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Recording reports whether dictation is in progress.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// LastReply returns the text of the last reply that completed normally.
func (s *Session) LastReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReply
}

// Transcript returns a copy of the messages exchanged in this conversation.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// SetLanguage switches the reply language. code may be any tag that matches
// a supported language.
func (s *Session) SetLanguage(code string) (i18n.Lang, error) {
	lang, err := i18n.Parse(code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()
	return lang, nil
}

// SetTheme switches to "dark" or "light".
func (s *Session) SetTheme(theme string) error {
	if theme != themeDark && theme != themeLight {
		return fmt.Errorf("unknown theme %q (expected %s or %s)", theme, themeDark, themeLight)
	}

	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// ToggleTheme flips the theme and returns the new one.
func (s *Session) ToggleTheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.theme == themeLight {
		s.theme = themeDark
	} else {
		s.theme = themeLight
	}
	return s.theme
}

// AttachImage validates and holds the photo at path for the next Send.
func (s *Session) AttachImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	if err := client.ValidateImage(data); err != nil {
		return err
	}

	s.mu.Lock()
	s.image = &client.Image{Name: filepath.Base(path), Data: data}
	s.mu.Unlock()
	return nil
}

// ClearImage drops the pending photo.
func (s *Session) ClearImage() {
	s.mu.Lock()
	s.image = nil
	s.mu.Unlock()
}

// PendingImage returns the file name of the pending photo, or "".
func (s *Session) PendingImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return ""
	}
	return s.image.Name
}

// State returns what should survive to the next run.
func (s *Session) State() *dotdir.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &dotdir.SessionState{
		ConversationID: s.conversationID,
		Title:          s.title,
		Language:       s.language.String(),
		Theme:          s.theme,
		UpdatedAt:      time.Now().UTC(),
	}
}

func (s *Session) appendMessage(m Message) {
	s.mu.Lock()
	s.transcript = append(s.transcript, m)
	s.mu.Unlock()
}
