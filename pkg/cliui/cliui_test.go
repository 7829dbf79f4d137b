package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/farmbuddy/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("reports success with a checkmark", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Uploading photo", func() error { return nil })
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("Uploading photo"))
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		})

		It("returns the step error with a cross", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")
			err := cliui.Step(&buf, "Transcribing", func() error { return boom })
			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		})
	})

	Describe("FormatDuration", func() {
		It("uses milliseconds under a second", func() {
			Expect(cliui.FormatDuration(250 * time.Millisecond)).To(Equal("250ms"))
		})

		It("uses seconds above a second", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("PaletteFor", func() {
		It("differs between themes", func() {
			dark := cliui.PaletteFor("dark")
			light := cliui.PaletteFor("light")
			Expect(dark.User.GetForeground()).NotTo(Equal(light.User.GetForeground()))
		})

		It("falls back to dark", func() {
			Expect(cliui.PaletteFor("sepia").Bot.GetForeground()).To(Equal(cliui.PaletteFor("dark").Bot.GetForeground()))
		})
	})
})
