package sse

import (
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		Context("with standard SSE events", func() {
			It("parses a single event", func() {
				r := NewReader(strings.NewReader("data: {\"chunk\":\"Plant\"}\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal(`{"chunk":"Plant"}`))
				Expect(ev.Type).To(BeEmpty())
				Expect(ev.ID).To(BeEmpty())
				Expect(ev.Terminated).To(BeTrue())

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("parses typed events with ids", func() {
				r := NewReader(strings.NewReader("event: reply\nid: 7\ndata: {\"chunk\":\"a\"}\n\nevent: done\ndata: [DONE]\n\n"))

				ev1, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev1.Type).To(Equal("reply"))
				Expect(ev1.ID).To(Equal("7"))

				ev2, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev2.Type).To(Equal("done"))
				Expect(ev2.Data).To(Equal("[DONE]"))
			})

			It("joins multiple data lines", func() {
				r := NewReader(strings.NewReader("data: {\"chunk\":\ndata: \"maize\"}\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("{\"chunk\":\n\"maize\"}"))
			})
		})

		Context("with field variations", func() {
			It("ignores comments", func() {
				r := NewReader(strings.NewReader(": keep-alive\ndata: hello\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello"))
			})

			It("handles a data field with no space after the colon", func() {
				r := NewReader(strings.NewReader("data:no-space\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("no-space"))
			})

			It("handles an empty data field", func() {
				r := NewReader(strings.NewReader("data:\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).NotTo(BeNil())
				Expect(ev.Data).To(BeEmpty())
			})

			It("ignores unknown fields", func() {
				r := NewReader(strings.NewReader("retry: 3000\nfoo: bar\ndata: hello\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello"))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				ev, err := NewReader(strings.NewReader("")).Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("skips blank lines between events", func() {
				r := NewReader(strings.NewReader("\n\n\ndata: hello\n\n\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello"))

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("yields an unterminated final event", func() {
				r := NewReader(strings.NewReader("data: unterminated"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("unterminated"))
				Expect(ev.Terminated).To(BeFalse())
			})

			It("surfaces source errors", func() {
				boom := errors.New("connection reset")
				r := NewReader(iotest.ErrReader(boom))

				_, err := r.Next()
				Expect(err).To(MatchError(boom))
			})
		})
	})
})

var _ = Describe("LineReader", func() {
	readAll := func(src string) string {
		out, err := io.ReadAll(NewLineReader(strings.NewReader(src)))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return string(out)
	}

	It("writes one line per event", func() {
		out := readAll("data: {\"chunk\":\"Plant \"}\n\ndata: {\"chunk\":\"early\"}\n\n")
		Expect(out).To(Equal("{\"chunk\":\"Plant \"}\n{\"chunk\":\"early\"}\n"))
	})

	It("skips the done marker and empty events", func() {
		out := readAll("data: {\"full_text\":\"Done.\"}\n\nevent: ping\n\ndata: [DONE]\n\n")
		Expect(out).To(Equal("{\"full_text\":\"Done.\"}\n"))
	})

	It("flattens multi-line data", func() {
		out := readAll("data: {\"chunk\":\ndata: \"maize\"}\n\n")
		Expect(out).To(Equal("{\"chunk\": \"maize\"}\n"))
	})

	It("leaves an unterminated final event without a newline", func() {
		out := readAll("data: {\"chunk\":\"a\"}\n\ndata: {\"chunk\":\"b\"}")
		Expect(out).To(Equal("{\"chunk\":\"a\"}\n{\"chunk\":\"b\"}"))
	})

	It("serves small reads across event boundaries", func() {
		r := NewLineReader(strings.NewReader("data: abc\n\ndata: def\n\n"))
		out, err := io.ReadAll(iotest.OneByteReader(r))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("abc\ndef\n"))
	})

	It("returns the source error after buffered lines", func() {
		boom := errors.New("connection reset")
		src := io.MultiReader(strings.NewReader("data: abc\n\n"), iotest.ErrReader(boom))
		out, err := io.ReadAll(NewLineReader(src))
		Expect(err).To(MatchError(boom))
		Expect(string(out)).To(Equal("abc\n"))
	})
})
