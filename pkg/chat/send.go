package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/papercomputeco/farmbuddy/pkg/client"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
	"github.com/papercomputeco/farmbuddy/pkg/speech"
	"github.com/papercomputeco/farmbuddy/pkg/stream"
	"github.com/papercomputeco/farmbuddy/pkg/utils"
)

// connectionErrorPrefix starts the assistant message shown when a reply
// could not be received.
const connectionErrorPrefix = "Sorry, there was a connection error: "

// Reply is the outcome of one Send.
type Reply struct {
	// Text is the final accumulated reply, or an apology when the reply
	// could not be received.
	Text string

	// Snapshots counts the updates shown while the reply streamed in.
	Snapshots int

	Stats    stream.Stats
	Duration time.Duration

	// Clip is the read-aloud audio when auto speak is on.
	Clip *speech.Clip

	// Failed is set when Text is an apology rather than a reply.
	Failed bool
}

type nopView struct{}

func (nopView) Update(string) error { return nil }
func (nopView) Finish(string) error { return nil }
func (nopView) Reset()              {}

// Send posts text, with the pending photo when one is attached, and shows the
// reply on view as it arrives.
//
// A reply that breaks off or cannot be requested is replaced by an apology:
// the returned Reply carries it with Failed set, and the error says why. A
// cancelled context discards the partial reply and returns only the error.
func (s *Session) Send(ctx context.Context, text string, view View) (*Reply, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	img := s.image
	lang := s.language
	s.mu.Unlock()

	if text == "" && img == nil {
		return nil, ErrEmptyMessage
	}

	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if view == nil {
		view = nopView{}
	}
	view.Reset()

	userMsg := Message{Role: RoleUser, Text: text, At: time.Now()}
	if img != nil {
		userMsg.Image = img.Name
	}
	s.appendMessage(userMsg)

	reply := &Reply{}
	start := time.Now()

	opts := []stream.Option{
		stream.WithTrailingPolicy(s.trailing),
		stream.WithLogger(s.logger),
		stream.WithFinalizer(func(final string) {
			s.finalize(ctx, final, lang.String(), reply)
		}),
	}

	path := "/chat/send/"
	var dec *stream.Decoder
	if img != nil {
		path = "/chat/upload/"
		// The photo goes with this message only, as in the web client.
		s.ClearImage()
		dec, err = s.backend.UploadImage(ctx, *img, text, opts...)
	} else {
		dec, err = s.backend.SendMessage(ctx, client.Message{Text: text, Language: lang.String()}, opts...)
	}
	if err != nil {
		return s.fail(ctx, reply, view, text, path, start, err)
	}
	defer dec.Close()

	final, err := dec.Run(ctx, func(snap stream.Snapshot) error {
		reply.Snapshots++
		return view.Update(snap.Text)
	})
	reply.Stats = dec.Stats()
	if err != nil {
		return s.fail(ctx, reply, view, text, path, start, err)
	}

	if err := view.Finish(final); err != nil {
		s.logger.Warn("could not display reply", "error", err)
	}

	reply.Text = final
	reply.Duration = time.Since(start)
	s.appendMessage(Message{Role: RoleAssistant, Text: final, At: time.Now()})

	s.logger.Debug("reply finished",
		"path", path,
		"snapshots", reply.Snapshots,
		"duration", reply.Duration,
		"preview", utils.Truncate(final, 60),
	)
	s.publish(ctx, eventstream.EventTypeReplyCompleted, text, path, img != nil, start, reply, nil)

	return reply, nil
}

// finalize runs once when a reply stream completed normally: it makes the
// reply available to read aloud and speaks it when auto speak is on.
func (s *Session) finalize(ctx context.Context, final, lang string, reply *Reply) {
	s.mu.Lock()
	s.lastReply = final
	s.mu.Unlock()

	if !s.autoSpeak || strings.TrimSpace(final) == "" {
		return
	}

	clip, err := s.speaker.Speak(ctx, final, lang)
	if err != nil {
		s.logger.Warn("could not read reply aloud", "error", err)
		return
	}
	reply.Clip = clip
}

func (s *Session) fail(ctx context.Context, reply *Reply, view View, prompt, path string, start time.Time, cause error) (*Reply, error) {
	reply.Duration = time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(cause, ctxErr) {
		_ = view.Finish("")
		s.publish(context.WithoutCancel(ctx), eventstream.EventTypeReplyFailed, prompt, path, path == "/chat/upload/", start, reply, cause)
		return nil, cause
	}

	reply.Failed = true
	reply.Text = connectionErrorPrefix + cause.Error()
	if err := view.Finish(reply.Text); err != nil {
		s.logger.Warn("could not display reply", "error", err)
	}

	s.appendMessage(Message{Role: RoleAssistant, Text: reply.Text, At: time.Now()})
	s.publish(ctx, eventstream.EventTypeReplyFailed, prompt, path, path == "/chat/upload/", start, reply, cause)

	return reply, cause
}

func (s *Session) publish(ctx context.Context, eventType, prompt, path string, withImage bool, start time.Time, reply *Reply, cause error) {
	ev := eventstream.NewReplyEvent(eventType)

	s.mu.Lock()
	ev.Session = eventstream.SessionMeta{
		SessionID:      s.id,
		ConversationID: s.conversationID,
		Language:       s.language.String(),
	}
	s.mu.Unlock()

	ev.Request = eventstream.RequestMeta{
		Path:        path,
		StartedAt:   start.UTC(),
		CompletedAt: start.Add(reply.Duration).UTC(),
		DurationMs:  reply.Duration.Milliseconds(),
		WithImage:   withImage,
	}
	ev.Stream = eventstream.StreamMeta{
		Snapshots:       reply.Snapshots,
		Lines:           reply.Stats.Lines,
		Malformed:       reply.Stats.Malformed,
		UpstreamErrors:  reply.Stats.UpstreamErrors,
		TrailingDropped: reply.Stats.TrailingDropped,
	}
	ev.Prompt = prompt
	ev.Reply = reply.Text
	if cause != nil {
		ev.Error = cause.Error()
	}

	if err := s.publisher.PublishReply(ctx, ev); err != nil {
		s.logger.Warn("could not publish reply event", "error", err)
	}
}
