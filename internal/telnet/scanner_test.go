package telnet_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telpy/internal/telnet"
)

func data(s string) telnet.Event {
	return telnet.Event{Kind: telnet.EventData, Data: []byte(s)}
}

func negotiate(cmd, option byte) telnet.Event {
	return telnet.Event{Kind: telnet.EventNegotiate, Command: cmd, Option: option}
}

func unhandled(cmd, option byte) telnet.Event {
	return telnet.Event{Kind: telnet.EventUnhandled, Command: cmd, Option: option}
}

var _ = Describe("Scanner", func() {
	var scanner *telnet.Scanner

	BeforeEach(func() {
		scanner = telnet.NewScanner()
	})

	It("passes plain text through as a single data event", func() {
		Expect(scanner.Scan([]byte("login: "))).To(Equal([]telnet.Event{data("login: ")}))
		Expect(scanner.Pending()).To(BeEmpty())
	})

	It("splits negotiation out of interleaved text in order", func() {
		in := []byte{'h', 'i', telnet.IAC, telnet.WILL, telnet.Echo, 'x', telnet.IAC, telnet.DO, telnet.NAWS}
		Expect(scanner.Scan(in)).To(Equal([]telnet.Event{
			data("hi"),
			negotiate(telnet.WILL, telnet.Echo),
			data("x"),
			negotiate(telnet.DO, telnet.NAWS),
		}))
	})

	It("holds back a triple split after the command byte", func() {
		Expect(scanner.Scan([]byte{telnet.IAC, telnet.WILL})).To(BeEmpty())
		Expect(scanner.Pending()).To(Equal([]byte{telnet.IAC, telnet.WILL}))

		Expect(scanner.Scan([]byte{telnet.Echo})).To(Equal([]telnet.Event{negotiate(telnet.WILL, telnet.Echo)}))
		Expect(scanner.Pending()).To(BeEmpty())
	})

	It("holds back a lone trailing IAC without emitting data for it", func() {
		Expect(scanner.Scan([]byte{'a', telnet.IAC})).To(Equal([]telnet.Event{data("a")}))
		Expect(scanner.Scan([]byte{telnet.DONT, telnet.SGA, 'b'})).To(Equal([]telnet.Event{
			negotiate(telnet.DONT, telnet.SGA),
			data("b"),
		}))
	})

	It("unescapes IAC IAC into one data byte", func() {
		Expect(scanner.Scan([]byte{'a', telnet.IAC, telnet.IAC, 'b'})).To(Equal([]telnet.Event{
			{Kind: telnet.EventData, Data: []byte{'a', 0xFF, 'b'}},
		}))
	})

	It("reports two byte commands as unhandled", func() {
		Expect(scanner.Scan([]byte{telnet.IAC, telnet.GA, 'z'})).To(Equal([]telnet.Event{
			unhandled(telnet.GA, 0),
			data("z"),
		}))
	})

	It("consumes a whole sub-negotiation, even across reads", func() {
		Expect(scanner.Scan([]byte{telnet.IAC, telnet.SB, telnet.TType, 1})).To(BeEmpty())
		Expect(scanner.Scan([]byte{telnet.IAC, telnet.SE, 'k'})).To(Equal([]telnet.Event{
			unhandled(telnet.SB, telnet.TType),
			data("k"),
		}))
	})

	It("gives up on a sub-negotiation that outgrows its bound", func() {
		scanner.MaxSubnegotiation = 8

		Expect(scanner.Scan([]byte{telnet.IAC, telnet.SB, telnet.NAWS})).To(BeEmpty())
		Expect(scanner.Scan([]byte("banner"))).To(BeEmpty())
		Expect(scanner.InSubnegotiation()).To(BeTrue())

		Expect(scanner.Scan([]byte("\r\nlogin: "))).To(Equal([]telnet.Event{
			unhandled(telnet.SB, telnet.NAWS),
			data("banner\r\nlogin: "),
		}))
		Expect(scanner.Pending()).To(BeEmpty())
	})

	It("releases the text held by an abandoned sub-negotiation", func() {
		Expect(scanner.Scan([]byte{'a', telnet.IAC, telnet.SB, telnet.NAWS})).To(Equal([]telnet.Event{data("a")}))
		Expect(scanner.Scan([]byte{'o', 'k', telnet.IAC, telnet.WILL, telnet.Echo, 'x', telnet.IAC})).To(BeEmpty())

		Expect(scanner.AbandonSubnegotiation()).To(Equal([]telnet.Event{
			unhandled(telnet.SB, telnet.NAWS),
			data("ok"),
			negotiate(telnet.WILL, telnet.Echo),
			data("x"),
		}))
		Expect(scanner.Pending()).To(Equal([]byte{telnet.IAC}))
		Expect(scanner.InSubnegotiation()).To(BeFalse())
		Expect(scanner.AbandonSubnegotiation()).To(BeNil())
	})

	It("drops residue on Reset", func() {
		scanner.Scan([]byte{telnet.IAC})
		scanner.Reset()
		Expect(scanner.Pending()).To(BeEmpty())
		Expect(scanner.Scan([]byte("ok"))).To(Equal([]telnet.Event{data("ok")}))
	})
})
