package chat_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/farmbuddy/pkg/chat"
	"github.com/papercomputeco/farmbuddy/pkg/client"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
	"github.com/papercomputeco/farmbuddy/pkg/i18n"
	"github.com/papercomputeco/farmbuddy/pkg/speech"
	"github.com/papercomputeco/farmbuddy/pkg/stream"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

var _ = Describe("Session", func() {
	var (
		backend   *fakeBackend
		publisher *recordingPublisher
		speaker   *recordingSpeaker
		session   *chat.Session
		ctx       context.Context
	)

	newSession := func(mutate func(*chat.Config)) *chat.Session {
		cfg := chat.Config{
			Backend:   backend,
			Publisher: publisher,
			Speaker:   speaker,
		}
		if mutate != nil {
			mutate(&cfg)
		}
		s, err := chat.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		backend = newFakeBackend()
		publisher = &recordingPublisher{}
		speaker = &recordingSpeaker{}
		session = newSession(nil)
		ctx = context.Background()
	})

	Describe("New", func() {
		It("requires a backend", func() {
			_, err := chat.New(chat.Config{})
			Expect(err).To(HaveOccurred())
		})

		It("starts in English with the dark theme", func() {
			Expect(session.Language()).To(Equal(i18n.English))
			Expect(session.Theme()).To(Equal("dark"))
			Expect(session.ID()).NotTo(BeEmpty())
		})

		It("rejects an unknown theme", func() {
			_, err := chat.New(chat.Config{Backend: backend, Theme: "sepia"})
			Expect(err).To(MatchError(ContainSubstring("unknown theme")))
		})
	})

	Describe("Send", func() {
		It("shows every snapshot and returns the final reply", func() {
			view := &recordingView{}
			reply, err := session.Send(ctx, "  When do I plant maize? ", view)
			Expect(err).NotTo(HaveOccurred())

			Expect(reply.Text).To(Equal("Plant after rain."))
			Expect(reply.Failed).To(BeFalse())
			Expect(reply.Snapshots).To(Equal(2))
			Expect(view.updates).To(Equal([]string{"Plant ", "Plant after rain."}))
			Expect(view.final).To(Equal("Plant after rain."))
			Expect(view.resets).To(Equal(1))

			Expect(backend.lastSent()).To(Equal(client.Message{Text: "When do I plant maize?", Language: "en"}))
			Expect(session.Busy()).To(BeFalse())
		})

		It("records both sides of the exchange", func() {
			_, err := session.Send(ctx, "hello", nil)
			Expect(err).NotTo(HaveOccurred())

			transcript := session.Transcript()
			Expect(transcript).To(HaveLen(2))
			Expect(transcript[0].Role).To(Equal(chat.RoleUser))
			Expect(transcript[0].Text).To(Equal("hello"))
			Expect(transcript[1].Role).To(Equal(chat.RoleAssistant))
			Expect(transcript[1].Text).To(Equal("Plant after rain."))
		})

		It("refuses an empty message", func() {
			_, err := session.Send(ctx, "   ", nil)
			Expect(err).To(MatchError(chat.ErrEmptyMessage))
			Expect(backend.sent).To(BeEmpty())
		})

		It("sends in the selected language", func() {
			_, err := session.SetLanguage("yo-NG")
			Expect(err).NotTo(HaveOccurred())

			_, err = session.Send(ctx, "bawo", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.lastSent().Language).To(Equal("yo"))
		})

		It("keeps an upstream error inside the reply", func() {
			backend.reply = func() io.Reader {
				return strings.NewReader(`{"chunk":"Partial"}` + "\n" + `{"error":"model overloaded"}` + "\n")
			}

			reply, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Partial\n[Error: model overloaded]"))
			Expect(reply.Stats.UpstreamErrors).To(Equal(1))
		})

		It("drops an unterminated final line by default", func() {
			backend.reply = func() io.Reader {
				return strings.NewReader(`{"chunk":"Done."}` + "\n" + `{"chunk":" tail"}`)
			}

			reply, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Done."))
			Expect(reply.Stats.TrailingDropped).To(BeTrue())
		})

		It("flushes an unterminated final line when configured to", func() {
			session = newSession(func(cfg *chat.Config) { cfg.FlushTrailing = true })
			backend.reply = func() io.Reader {
				return strings.NewReader(`{"chunk":"Done."}` + "\n" + `{"chunk":" tail"}`)
			}

			reply, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Done. tail"))
		})

		It("makes a completed reply available to read aloud", func() {
			Expect(session.LastReply()).To(BeEmpty())

			_, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.LastReply()).To(Equal("Plant after rain."))
			Expect(speaker.spoken()).To(BeEmpty())
		})

		It("reads completed replies aloud with auto speak", func() {
			session = newSession(func(cfg *chat.Config) { cfg.AutoSpeak = true })

			reply, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Clip).NotTo(BeNil())
			Expect(speaker.spoken()).To(Equal([]string{"Plant after rain."}))
		})

		It("apologizes when the stream breaks off", func() {
			backend.reply = func() io.Reader {
				return io.MultiReader(
					strings.NewReader(`{"chunk":"Pla"}`+"\n"),
					iotest.ErrReader(errors.New("connection reset by peer")),
				)
			}
			view := &recordingView{}

			reply, err := session.Send(ctx, "hi", view)
			var terr *stream.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())

			Expect(reply.Failed).To(BeTrue())
			Expect(reply.Text).To(HavePrefix("Sorry, there was a connection error: "))
			Expect(reply.Text).To(ContainSubstring("connection reset by peer"))
			Expect(view.final).To(Equal(reply.Text))
			Expect(session.LastReply()).To(BeEmpty())

			transcript := session.Transcript()
			Expect(transcript).To(HaveLen(2))
			Expect(transcript[1].Text).To(Equal(reply.Text))
		})

		It("apologizes when the request cannot be made", func() {
			backend.sendErr = errors.New("dial tcp: connection refused")

			reply, err := session.Send(ctx, "hi", nil)
			Expect(err).To(MatchError(ContainSubstring("connection refused")))
			Expect(reply.Failed).To(BeTrue())
			Expect(session.Busy()).To(BeFalse())
		})

		It("discards the reply when cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			reply, err := session.Send(cctx, "hi", nil)
			Expect(err).To(MatchError(context.Canceled))
			Expect(reply).To(BeNil())
			Expect(session.Transcript()).To(HaveLen(1))
			Expect(session.LastReply()).To(BeEmpty())
		})

		It("refuses a second request while one is in flight", func() {
			pr, pw := io.Pipe()
			backend.reply = func() io.Reader { return pr }

			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				_, err := session.Send(ctx, "first", nil)
				done <- err
			}()

			Eventually(session.Busy).Should(BeTrue())
			_, err := session.Send(ctx, "second", nil)
			Expect(err).To(MatchError(chat.ErrBusy))

			go func() {
				_, _ = io.WriteString(pw, `{"full_text":"ok"}`+"\n")
				_ = pw.Close()
			}()
			Eventually(done).Should(Receive(BeNil()))
			Expect(session.Busy()).To(BeFalse())
		})

		It("publishes a completed reply event", func() {
			_, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())

			events := publisher.all()
			Expect(events).To(HaveLen(1))
			ev := events[0]
			Expect(ev.EventType).To(Equal(eventstream.EventTypeReplyCompleted))
			Expect(ev.Session.SessionID).To(Equal(session.ID()))
			Expect(ev.Request.Path).To(Equal("/chat/send/"))
			Expect(ev.Stream.Snapshots).To(Equal(2))
			Expect(ev.Stream.Lines).To(Equal(2))
			Expect(ev.Prompt).To(Equal("hi"))
			Expect(ev.Reply).To(Equal("Plant after rain."))
			Expect(ev.Error).To(BeEmpty())
		})

		It("publishes a failed reply event", func() {
			backend.sendErr = errors.New("boom")

			_, _ = session.Send(ctx, "hi", nil)
			events := publisher.all()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeReplyFailed))
			Expect(events[0].Error).To(Equal("boom"))
		})
	})

	Describe("images", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "leaf.png")
			Expect(os.WriteFile(path, pngHeader, 0o600)).To(Succeed())
		})

		It("sends a pending photo with the next message only", func() {
			Expect(session.AttachImage(path)).To(Succeed())
			Expect(session.PendingImage()).To(Equal("leaf.png"))

			_, err := session.Send(ctx, "what is this?", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.uploaded).To(HaveLen(1))
			Expect(backend.captions).To(Equal([]string{"what is this?"}))
			Expect(session.PendingImage()).To(BeEmpty())
			Expect(session.Transcript()[0].Image).To(Equal("leaf.png"))

			_, err = session.Send(ctx, "thanks", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.uploaded).To(HaveLen(1))
			Expect(backend.sent).To(HaveLen(1))
		})

		It("sends a photo without a caption", func() {
			Expect(session.AttachImage(path)).To(Succeed())

			_, err := session.Send(ctx, "", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.captions).To(Equal([]string{""}))
			Expect(publisher.all()[0].Request.WithImage).To(BeTrue())
		})

		It("refuses files that are not images", func() {
			notes := filepath.Join(GinkgoT().TempDir(), "notes.txt")
			Expect(os.WriteFile(notes, []byte("just text"), 0o600)).To(Succeed())

			Expect(session.AttachImage(notes)).To(MatchError(client.ErrUnsupportedImage))
			Expect(session.PendingImage()).To(BeEmpty())
		})

		It("drops a pending photo on request", func() {
			Expect(session.AttachImage(path)).To(Succeed())
			session.ClearImage()
			Expect(session.PendingImage()).To(BeEmpty())
		})
	})

	Describe("conversations", func() {
		It("starts a new conversation when there is none to resume", func() {
			id, err := session.Resume(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(11)))
			Expect(session.ConversationID()).To(Equal(int64(11)))
		})

		It("resumes a known conversation", func() {
			session = newSession(func(cfg *chat.Config) { cfg.ConversationID = 7 })

			id, err := session.Resume(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(7)))
		})

		It("starts over when the saved conversation is gone", func() {
			session = newSession(func(cfg *chat.Config) { cfg.ConversationID = 99 })

			id, err := session.Resume(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(11)))
		})

		It("clears the transcript when switching", func() {
			_, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.OpenConversation(ctx, 7)).To(Succeed())
			Expect(session.Transcript()).To(BeEmpty())
			Expect(session.LastReply()).To(BeEmpty())
		})

		It("refuses to open an invalid id", func() {
			Expect(session.OpenConversation(ctx, 0)).To(MatchError(chat.ErrNoConversation))
		})

		It("renames the active conversation", func() {
			Expect(session.OpenConversation(ctx, 7)).To(Succeed())

			title, err := session.Rename(ctx, 0, "  Maize planting ")
			Expect(err).NotTo(HaveOccurred())
			Expect(title).To(Equal("Maize planting"))
			Expect(session.Title()).To(Equal("Maize planting"))
		})

		It("needs a conversation to rename", func() {
			_, err := session.Rename(ctx, 0, "x")
			Expect(err).To(MatchError(chat.ErrNoConversation))
		})

		It("leaves the session without a conversation after deleting the active one", func() {
			Expect(session.OpenConversation(ctx, 7)).To(Succeed())
			Expect(session.Delete(ctx, 0)).To(Succeed())
			Expect(session.ConversationID()).To(BeZero())
			Expect(session.Delete(ctx, 7)).To(MatchError(client.ErrNotFound))
		})

		It("keeps the active conversation when deleting another one", func() {
			id, err := session.NewConversation(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.Delete(ctx, 7)).To(Succeed())
			Expect(session.ConversationID()).To(Equal(id))
		})

		It("adds the weather report to the transcript", func() {
			w, err := session.ShareLocation(ctx, 10.52, 7.44)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Report).To(ContainSubstring("Kaduna"))

			transcript := session.Transcript()
			Expect(transcript).To(HaveLen(1))
			Expect(transcript[0].Role).To(Equal(chat.RoleSystem))
		})

		It("remembers state for the next run", func() {
			Expect(session.OpenConversation(ctx, 7)).To(Succeed())
			_, err := session.Rename(ctx, 7, "Maize")
			Expect(err).NotTo(HaveOccurred())
			_, err = session.SetLanguage("ha")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.ToggleTheme()).To(Equal("light"))

			state := session.State()
			Expect(state.ConversationID).To(Equal(int64(7)))
			Expect(state.Title).To(Equal("Maize"))
			Expect(state.Language).To(Equal("ha"))
			Expect(state.Theme).To(Equal("light"))
		})
	})

	Describe("voice", func() {
		It("joins final dictation results", func() {
			rec := newCannedRecognizer(
				speech.Result{Text: "when do I", Final: false},
				speech.Result{Text: "when do I plant", Final: true},
				speech.Result{Text: " maize ", Final: true},
			)

			text, err := session.Dictate(ctx, rec, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("when do I plant maize"))
			Expect(session.Recording()).To(BeFalse())
		})

		It("cancels the recording with the context", func() {
			rec := newCannedRecognizer()
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := session.Dictate(cctx, rec, make(chan struct{}))
			Expect(err).To(MatchError(context.Canceled))
			Expect(rec.cancelled).To(BeTrue())
		})

		It("needs a reply to read aloud", func() {
			_, err := session.Speak(ctx)
			Expect(err).To(MatchError(chat.ErrNoReply))
		})

		It("reads the last reply aloud", func() {
			_, err := session.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())

			clip, err := session.Speak(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(clip.ContentType).To(Equal("audio/mpeg"))
			Expect(speaker.spoken()).To(Equal([]string{"Plant after rain."}))
		})
	})
})
