package telnet

import (
	"bytes"
	"fmt"
)

// EventKind identifies what a scanned Event carries.
type EventKind int

const (
	// EventData is a run of plain bytes.
	EventData EventKind = iota
	// EventNegotiate is a complete IAC WILL/WONT/DO/DONT <option> triple.
	EventNegotiate
	// EventUnhandled is any other IAC command. It is reported and otherwise ignored.
	EventUnhandled
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "Data"
	case EventNegotiate:
		return "Negotiate"
	case EventUnhandled:
		return "Unhandled"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a single item split out of the inbound byte stream.
type Event struct {
	Kind    EventKind
	Data    []byte // EventData only
	Command byte   // EventNegotiate and EventUnhandled
	Option  byte   // zero for commands that carry no option
}

func (e Event) String() string {
	if e.Kind == EventData {
		return fmt.Sprintf("Data(%q)", e.Data)
	}
	return fmt.Sprintf("%s(%s, %s)", e.Kind, CommandName(e.Command), OptionName(e.Option))
}

// Scanner splits inbound bytes into data runs and IAC commands. An IAC
// sequence cut off at the end of a buffer is held back and completed by the
// next call to Scan, so a split command is never reported as data.
//
// IAC IAC is unescaped into a single 0xFF data byte. Sub-negotiations
// (IAC SB <option> ... IAC SE) are consumed whole and reported as
// EventUnhandled with Command SB. One whose payload grows past
// MaxSubnegotiation without an IAC SE is given up on: it is reported as
// unhandled and whatever followed the IAC SB <option> header is scanned
// as ordinary input.
type Scanner struct {
	// MaxSubnegotiation bounds the payload held for an open sub-negotiation.
	// Zero means DefaultMaxSubnegotiation.
	MaxSubnegotiation int

	buf bytes.Buffer // bytes not yet consumed, starting at an IAC when non-empty
}

// DefaultMaxSubnegotiation is far above anything NAWS, TTYPE or NEW-ENVIRON send.
const DefaultMaxSubnegotiation = 1024

// NewScanner returns an empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan appends p to any retained residue and returns the events it completes,
// in stream order. Adjacent data bytes are merged into one EventData.
func (s *Scanner) Scan(p []byte) []Event {
	s.buf.Write(p)

	var events []Event
	var data []byte

	flush := func() {
		if len(data) > 0 {
			events = append(events, Event{Kind: EventData, Data: data})
			data = nil
		}
	}

	for s.buf.Len() > 0 {
		buffered := s.buf.Bytes()
		iacIndex := bytes.IndexByte(buffered, IAC)

		if iacIndex == -1 {
			data = append(data, s.buf.Next(s.buf.Len())...)
			break
		}

		if iacIndex > 0 {
			data = append(data, s.buf.Next(iacIndex)...)
			buffered = s.buf.Bytes()
		}

		// We are at IAC; wait for the command byte.
		if len(buffered) < 2 {
			break
		}

		cmd := buffered[1]

		if cmd == IAC {
			data = append(data, IAC)
			s.buf.Next(2)
			continue
		}

		if IsNegotiation(cmd) {
			if len(buffered) < 3 {
				break
			}
			flush()
			events = append(events, Event{Kind: EventNegotiate, Command: cmd, Option: buffered[2]})
			s.buf.Next(3)
			continue
		}

		if cmd == SB {
			if len(buffered) < 3 {
				break
			}
			seIndex := bytes.Index(buffered, []byte{IAC, SE})
			if seIndex == -1 {
				if len(buffered)-3 <= s.maxSubnegotiation() {
					break
				}
				flush()
				events = append(events, s.abandon())
				continue
			}
			flush()
			events = append(events, Event{Kind: EventUnhandled, Command: SB, Option: buffered[2]})
			s.buf.Next(seIndex + 2)
			continue
		}

		// Two byte commands: NOP, GA, AYT and friends.
		flush()
		events = append(events, Event{Kind: EventUnhandled, Command: cmd})
		s.buf.Next(2)
	}

	flush()
	return events
}

// InSubnegotiation reports whether the held back bytes are an open
// sub-negotiation waiting for its IAC SE.
func (s *Scanner) InSubnegotiation() bool {
	b := s.buf.Bytes()
	return len(b) >= 3 && b[0] == IAC && b[1] == SB
}

// AbandonSubnegotiation gives up on an open sub-negotiation. It is reported
// as unhandled and the bytes after its header are scanned again as input.
// Without an open sub-negotiation it returns nil.
func (s *Scanner) AbandonSubnegotiation() []Event {
	if !s.InSubnegotiation() {
		return nil
	}
	return append([]Event{s.abandon()}, s.Scan(nil)...)
}

func (s *Scanner) abandon() Event {
	header := s.buf.Next(3)
	return Event{Kind: EventUnhandled, Command: SB, Option: header[2]}
}

func (s *Scanner) maxSubnegotiation() int {
	if s.MaxSubnegotiation > 0 {
		return s.MaxSubnegotiation
	}
	return DefaultMaxSubnegotiation
}

// Pending returns a copy of the bytes held back waiting for the rest of an
// IAC sequence.
func (s *Scanner) Pending() []byte {
	return bytes.Clone(s.buf.Bytes())
}

// Reset discards any held back bytes.
func (s *Scanner) Reset() {
	s.buf.Reset()
}
