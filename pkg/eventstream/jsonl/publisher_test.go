package jsonl_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/jsonl"
)

func readEvents(path string) []eventstream.ReplyEvent {
	f, err := os.Open(path)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer f.Close()

	var events []eventstream.ReplyEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev eventstream.ReplyEvent
		ExpectWithOffset(1, json.Unmarshal(sc.Bytes(), &ev)).To(Succeed())
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Publisher", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "logs", "events.jsonl")
	})

	It("appends one line per event", func() {
		p, err := jsonl.NewPublisher(path)
		Expect(err).NotTo(HaveOccurred())

		first := eventstream.NewReplyEvent(eventstream.EventTypeReplyCompleted)
		first.Reply = "Plant after rain."
		second := eventstream.NewReplyEvent(eventstream.EventTypeReplyFailed)
		second.Error = "connection reset"

		Expect(p.PublishReply(context.Background(), first)).To(Succeed())
		Expect(p.PublishReply(context.Background(), second)).To(Succeed())
		Expect(p.Close()).To(Succeed())

		events := readEvents(path)
		Expect(events).To(HaveLen(2))
		Expect(events[0].EventType).To(Equal(eventstream.EventTypeReplyCompleted))
		Expect(events[0].Reply).To(Equal("Plant after rain."))
		Expect(events[1].Error).To(Equal("connection reset"))
		Expect(events[0].EventID).NotTo(Equal(events[1].EventID))
	})

	It("keeps earlier events when reopened", func() {
		for range 2 {
			p, err := jsonl.NewPublisher(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.PublishReply(context.Background(), eventstream.NewReplyEvent(eventstream.EventTypeReplyCompleted))).To(Succeed())
			Expect(p.Close()).To(Succeed())
		}

		Expect(readEvents(path)).To(HaveLen(2))
	})

	It("writes whole lines under concurrent publishers", func() {
		p, err := jsonl.NewPublisher(path)
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				Expect(p.PublishReply(context.Background(), eventstream.NewReplyEvent(eventstream.EventTypeReplyCompleted))).To(Succeed())
			}()
		}
		wg.Wait()
		Expect(p.Close()).To(Succeed())

		Expect(readEvents(path)).To(HaveLen(20))
	})

	It("rejects nil events and publishing after Close", func() {
		p, err := jsonl.NewPublisher(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(p.PublishReply(context.Background(), nil)).To(MatchError(eventstream.ErrNilReplyEvent))
		Expect(p.Close()).To(Succeed())
		Expect(p.Close()).To(Succeed())
		Expect(p.PublishReply(context.Background(), eventstream.NewReplyEvent(eventstream.EventTypeReplyCompleted))).To(MatchError(os.ErrClosed))
	})
})
