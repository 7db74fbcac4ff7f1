package telnet

import (
	"fmt"
	"log/slog"
)

// OptionStatus is how far negotiation of one direction of an option got.
type OptionStatus int

const (
	// StatusPending means the option was seen but no request for this
	// direction has been answered yet.
	StatusPending OptionStatus = iota
	// StatusRefused means we replied DONT (remote side) or WONT (local side).
	StatusRefused
)

func (s OptionStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRefused:
		return "REFUSED"
	default:
		return fmt.Sprintf("OptionStatus(%d)", int(s))
	}
}

// OptionState tracks one option code. Remote covers what the host offers to
// do itself (WILL/WONT), Local covers what it asks us to do (DO/DONT).
type OptionState struct {
	Code   byte
	Remote OptionStatus
	Local  OptionStatus
}

func (o OptionState) String() string {
	return fmt.Sprintf("%s remote=%s local=%s", OptionName(o.Code), o.Remote, o.Local)
}

// refusals is the whole negotiation policy: refuse everything offered or asked.
var refusals = map[byte]byte{
	WILL: DONT,
	DO:   WONT,
}

// Negotiator answers option negotiation from the remote host. It is not safe
// for concurrent use; one session drives it from a single goroutine.
type Negotiator struct {
	writer  *Writer
	logger  *slog.Logger
	options map[byte]*OptionState
	order   []byte // option codes in order of first sighting
}

func NewNegotiator(writer *Writer, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Negotiator{
		writer:  writer,
		logger:  logger,
		options: make(map[byte]*OptionState),
	}
}

// Handle processes one IAC <cmd> <option> request and writes the reply the
// policy calls for, if any. It reports whether a reply was sent. A request
// that has already been refused is not answered again.
func (n *Negotiator) Handle(cmd, option byte) (bool, error) {
	n.logCommand("IN", cmd, option)

	if !IsNegotiation(cmd) {
		return false, nil
	}

	state := n.state(option)

	reply, ok := refusals[cmd]
	if !ok {
		// WONT and DONT need no answer from a side that never enables anything.
		return false, nil
	}

	status := &state.Remote
	if cmd == DO {
		status = &state.Local
	}
	if *status == StatusRefused {
		n.logger.Debug("Telnet duplicate request suppressed", "cmd", CommandName(cmd), "opt", OptionName(option))
		return false, nil
	}

	n.logCommand("OUT", reply, option)
	if err := n.writer.WriteCommand(reply, option); err != nil {
		return false, err
	}
	*status = StatusRefused
	return true, nil
}

// Unhandled records an IAC command outside the negotiation verbs. It is only
// logged.
func (n *Negotiator) Unhandled(cmd, option byte) {
	n.logger.Debug("Telnet command ignored", "cmd", CommandName(cmd), "opt", OptionName(option))
}

// Options returns a snapshot of every seen option in order of first sighting.
func (n *Negotiator) Options() []OptionState {
	out := make([]OptionState, 0, len(n.order))
	for _, code := range n.order {
		out = append(out, *n.options[code])
	}
	return out
}

// Reset forgets all option state so that negotiation can start over.
func (n *Negotiator) Reset() {
	n.options = make(map[byte]*OptionState)
	n.order = nil
}

func (n *Negotiator) state(option byte) *OptionState {
	state, ok := n.options[option]
	if !ok {
		state = &OptionState{Code: option}
		n.options[option] = state
		n.order = append(n.order, option)
	}
	return state
}

func (n *Negotiator) logCommand(direction string, cmd, option byte) {
	n.logger.Debug(fmt.Sprintf("Telnet command [%s]", direction), "cmd", CommandName(cmd), "opt", OptionName(option))
}
