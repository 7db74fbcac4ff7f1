package telnet_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telpy/internal/telnet"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

var _ = Describe("Negotiator", func() {
	var (
		out        *bytes.Buffer
		negotiator *telnet.Negotiator
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		negotiator = telnet.NewNegotiator(telnet.NewWriter(out), logger)
	})

	It("answers WILL with DONT for every option code", func() {
		for code := 0; code < 256; code++ {
			out.Reset()
			negotiator.Reset()

			replied, err := negotiator.Handle(telnet.WILL, byte(code))
			Expect(err).NotTo(HaveOccurred())
			Expect(replied).To(BeTrue())
			Expect(out.Bytes()).To(Equal([]byte{telnet.IAC, telnet.DONT, byte(code)}))
		}
	})

	It("answers DO with WONT for every option code", func() {
		for code := 0; code < 256; code++ {
			out.Reset()
			negotiator.Reset()

			replied, err := negotiator.Handle(telnet.DO, byte(code))
			Expect(err).NotTo(HaveOccurred())
			Expect(replied).To(BeTrue())
			Expect(out.Bytes()).To(Equal([]byte{telnet.IAC, telnet.WONT, byte(code)}))
		}
	})

	It("does not answer a repeated request", func() {
		negotiator.Handle(telnet.WILL, telnet.Echo)
		replied, err := negotiator.Handle(telnet.WILL, telnet.Echo)

		Expect(err).NotTo(HaveOccurred())
		Expect(replied).To(BeFalse())
		Expect(out.Bytes()).To(Equal([]byte{telnet.IAC, telnet.DONT, telnet.Echo}))
	})

	It("tracks the two directions of an option separately", func() {
		negotiator.Handle(telnet.WILL, telnet.SGA)
		negotiator.Handle(telnet.DO, telnet.SGA)

		Expect(out.Bytes()).To(Equal([]byte{
			telnet.IAC, telnet.DONT, telnet.SGA,
			telnet.IAC, telnet.WONT, telnet.SGA,
		}))
		Expect(negotiator.Options()).To(Equal([]telnet.OptionState{
			{Code: telnet.SGA, Remote: telnet.StatusRefused, Local: telnet.StatusRefused},
		}))
	})

	It("records WONT and DONT without replying", func() {
		replied, _ := negotiator.Handle(telnet.WONT, telnet.Echo)
		Expect(replied).To(BeFalse())
		replied, _ = negotiator.Handle(telnet.DONT, telnet.NAWS)
		Expect(replied).To(BeFalse())

		Expect(out.Len()).To(BeZero())
		Expect(negotiator.Options()).To(Equal([]telnet.OptionState{
			{Code: telnet.Echo, Remote: telnet.StatusPending, Local: telnet.StatusPending},
			{Code: telnet.NAWS, Remote: telnet.StatusPending, Local: telnet.StatusPending},
		}))
	})

	It("ignores commands outside the negotiation verbs", func() {
		replied, err := negotiator.Handle(telnet.AYT, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(replied).To(BeFalse())
		Expect(negotiator.Options()).To(BeEmpty())
	})

	It("answers again after Reset", func() {
		negotiator.Handle(telnet.DO, telnet.TType)
		negotiator.Reset()
		replied, _ := negotiator.Handle(telnet.DO, telnet.TType)

		Expect(replied).To(BeTrue())
		Expect(out.Bytes()).To(HaveLen(6))
	})

	It("leaves the option pending when the reply cannot be written", func() {
		negotiator = telnet.NewNegotiator(telnet.NewWriter(failingWriter{}), nil)

		_, err := negotiator.Handle(telnet.WILL, telnet.Echo)
		Expect(err).To(MatchError("broken pipe"))

		Expect(negotiator.Options()).To(Equal([]telnet.OptionState{
			{Code: telnet.Echo, Remote: telnet.StatusPending, Local: telnet.StatusPending},
		}))
	})
})
