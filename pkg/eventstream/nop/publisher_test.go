package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("returns ErrNilReplyEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishReply(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilReplyEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishReply(context.Background(), eventstream.NewReplyEvent(eventstream.EventTypeReplyCompleted))
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		Expect(nop.NewPublisher().Close()).To(Succeed())
	})
})
