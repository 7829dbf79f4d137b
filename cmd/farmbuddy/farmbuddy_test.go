package farmbuddycmder_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	farmbuddycmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy"
	"github.com/papercomputeco/farmbuddy/pkg/dotdir"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

var _ = Describe("NewFarmBuddyCmd", func() {
	It("registers every subcommand", func() {
		cmd := farmbuddycmder.NewFarmBuddyCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"chat", "ask", "upload", "weather", "transcribe", "conversation", "config", "version",
		))
	})

	It("has the global flags", func() {
		cmd := farmbuddycmder.NewFarmBuddyCmd()
		Expect(cmd.PersistentFlags().Lookup("debug").Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

var _ = Describe("farmbuddy against a backend", func() {
	var (
		backend   *fakeBackend
		configDir string
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
	)

	run := func(stdin string, args ...string) error {
		cmd := farmbuddycmder.NewFarmBuddyCmd()
		stdout.Reset()
		stderr.Reset()
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)

		full := append([]string{}, args...)
		full = append(full, "--config-dir", configDir)
		if args[0] != "config" && args[0] != "version" {
			full = append(full, "--target", backend.URL, "--render-style", "plain")
		}
		cmd.SetArgs(full)
		return cmd.Execute()
	}

	savedState := func() *dotdir.SessionState {
		data, err := os.ReadFile(filepath.Join(configDir, "session.json"))
		Expect(err).NotTo(HaveOccurred())
		var state dotdir.SessionState
		Expect(json.Unmarshal(data, &state)).To(Succeed())
		return &state
	}

	BeforeEach(func() {
		backend = newFakeBackend()
		DeferCleanup(backend.Close)
		configDir = GinkgoT().TempDir()
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	Describe("chat", func() {
		It("welcomes, streams a reply and remembers the session", func() {
			err := run("When do I plant maize?\n/lang ha\n/exit\n", "chat")
			Expect(err).NotTo(HaveOccurred())

			out := stdout.String()
			Expect(out).To(ContainSubstring("Welcome to FarmBuddy!"))
			Expect(out).To(ContainSubstring("Crop planting and management"))
			Expect(out).To(ContainSubstring("Plant after the first rains."))
			Expect(out).To(ContainSubstring("Replies in"))

			Expect(backend.messages()).To(HaveLen(1))
			Expect(backend.messages()[0]).To(HaveKeyWithValue("message", "When do I plant maize?"))
			Expect(backend.messages()[0]).To(HaveKeyWithValue("language", "en"))

			state := savedState()
			Expect(state.ConversationID).To(Equal(int64(1)))
			Expect(state.Language).To(Equal("ha"))
		})

		It("greets in the saved language and resumes the saved conversation", func() {
			Expect(run("/lang yo\n/exit\n", "chat")).To(Succeed())

			Expect(run("Bawo ni?\n/exit\n", "chat")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Kaabo si FarmBuddy!"))
			Expect(backend.openedIDs()).To(ContainElement(int64(1)))
			Expect(backend.messages()[0]).To(HaveKeyWithValue("language", "yo"))
		})

		It("manages conversations from inside the chat", func() {
			Expect(run("/new\n/rename Cassava pests\n/theme\n/exit\n", "chat")).To(Succeed())

			title, ok := backend.title(2)
			Expect(ok).To(BeTrue())
			Expect(title).To(Equal("Cassava pests"))

			state := savedState()
			Expect(state.ConversationID).To(Equal(int64(2)))
			Expect(state.Theme).To(Equal("light"))
		})

		It("reports bad commands and keeps going", func() {
			Expect(run("/open abc\n/frobnicate\n/exit\n", "chat")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring(`invalid conversation id "abc"`))
			Expect(stdout.String()).To(ContainSubstring("unknown command /frobnicate"))
		})

		It("shares a location", func() {
			Expect(run("/weather 10.52, 7.44\n/exit\n", "chat")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Current weather in Kaduna"))
		})
	})

	Describe("ask", func() {
		It("prints the reply", func() {
			Expect(run("", "ask", "When", "do", "I", "plant?")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Plant after the first rains."))
			Expect(backend.messages()[0]).To(HaveKeyWithValue("message", "When do I plant?"))
		})

		It("starts over when the saved conversation is gone", func() {
			Expect(os.WriteFile(filepath.Join(configDir, "session.json"), []byte(`{"conversation_id": 42}`), 0o600)).To(Succeed())

			Expect(run("", "ask", "hello")).To(Succeed())
			Expect(savedState().ConversationID).To(Equal(int64(1)))
		})

		It("logs reply events before exiting", func() {
			eventsLog := filepath.Join(GinkgoT().TempDir(), "events.jsonl")
			Expect(run("", "ask", "--events-log", eventsLog, "hello")).To(Succeed())

			data, err := os.ReadFile(eventsLog)
			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			Expect(lines).To(HaveLen(1))

			var ev map[string]any
			Expect(json.Unmarshal([]byte(lines[0]), &ev)).To(Succeed())
			Expect(ev).To(HaveKeyWithValue("event_type", "farmbuddy.reply.completed"))
			Expect(ev).To(HaveKeyWithValue("reply", "Plant after the first rains."))
		})

		It("starts a new conversation with --new", func() {
			Expect(run("", "ask", "first")).To(Succeed())
			Expect(run("", "ask", "--new", "second")).To(Succeed())
			Expect(savedState().ConversationID).To(Equal(int64(2)))
		})
	})

	Describe("upload", func() {
		It("sends the photo with its caption", func() {
			path := filepath.Join(GinkgoT().TempDir(), "leaf.png")
			Expect(os.WriteFile(path, pngHeader, 0o600)).To(Succeed())

			Expect(run("", "upload", path, "What", "is", "this?")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Looks like cassava mosaic."))
			Expect(backend.uploaded()).To(Equal([]string{"leaf.png"}))
		})

		It("refuses a file that is not an image", func() {
			path := filepath.Join(GinkgoT().TempDir(), "notes.png")
			Expect(os.WriteFile(path, []byte("just text"), 0o600)).To(Succeed())

			Expect(run("", "upload", path)).To(MatchError(ContainSubstring("unsupported image")))
			Expect(backend.uploaded()).To(BeEmpty())
		})
	})

	Describe("conversation", func() {
		It("creates, renames and deletes conversations", func() {
			Expect(run("", "conversation", "new")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("#1"))

			Expect(run("", "conversation", "rename", "1", "Yam", "storage")).To(Succeed())
			title, _ := backend.title(1)
			Expect(title).To(Equal("Yam storage"))

			Expect(run("", "conversation", "delete", "1")).To(Succeed())
			_, ok := backend.title(1)
			Expect(ok).To(BeFalse())

			_, err := os.Stat(filepath.Join(configDir, "session.json"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("rejects a bad id", func() {
			Expect(run("", "conversation", "delete", "zero")).To(MatchError(ContainSubstring("invalid conversation id")))
		})
	})

	Describe("weather", func() {
		It("prints the report", func() {
			Expect(run("", "weather", "10.52", "7.44")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Current weather in Kaduna"))
		})

		It("prints raw data", func() {
			Expect(run("", "weather", "--raw", "10.52", "7.44")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring(`"current":{"name":"Kaduna"}`))
		})
	})

	Describe("transcribe", func() {
		var audio string

		BeforeEach(func() {
			audio = filepath.Join(GinkgoT().TempDir(), "question.wav")
			Expect(os.WriteFile(audio, []byte("yaushe zan shuka masara"), 0o600)).To(Succeed())
		})

		It("prints the transcription", func() {
			Expect(run("", "transcribe", audio)).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("yaushe zan shuka masara"))
			Expect(stderr.String()).To(ContainSubstring("Transcribing question.wav"))
			Expect(backend.messages()).To(BeEmpty())
		})

		It("asks the transcribed question with --ask", func() {
			Expect(run("", "transcribe", "--ask", audio)).To(Succeed())
			Expect(backend.messages()[0]).To(HaveKeyWithValue("message", "yaushe zan shuka masara"))
			Expect(stdout.String()).To(ContainSubstring("Plant after the first rains."))
		})

		It("fails for a missing file", func() {
			Expect(run("", "transcribe", filepath.Join(GinkgoT().TempDir(), "nope.wav"))).To(HaveOccurred())
		})
	})

	Describe("config", func() {
		It("sets, gets and lists values", func() {
			Expect(run("", "config", "set", "client.language", "ig")).To(Succeed())
			Expect(run("", "config", "get", "client.language")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("ig"))

			Expect(run("", "config", "list")).To(Succeed())
			Expect(stdout.String()).To(MatchRegexp(`client\.language\s+= "ig"`))
		})

		It("feeds configured values to the other commands", func() {
			Expect(run("", "config", "set", "client.language", "ha")).To(Succeed())
			Expect(run("", "ask", "sannu")).To(Succeed())
			Expect(backend.messages()[0]).To(HaveKeyWithValue("language", "ha"))
		})

		It("lets a flag override the config file", func() {
			Expect(run("", "config", "set", "client.language", "ha")).To(Succeed())
			Expect(run("", "ask", "--language", "yo", "bawo")).To(Succeed())
			Expect(backend.messages()[0]).To(HaveKeyWithValue("language", "yo"))
		})

		It("rejects unknown keys", func() {
			Expect(run("", "config", "set", "proxy.listen", ":8080")).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("version", func() {
		It("prints build information", func() {
			Expect(run("", "version")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Version:"))
		})
	})
})
