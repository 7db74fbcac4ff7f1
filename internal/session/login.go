package session

import (
	"bytes"
	"context"
	"errors"
	"time"

	"telpy/internal/telnet"
)

// LoginAttempt is the working state of one pass through the login prompts.
type LoginAttempt struct {
	Awaiting Awaiting
	Outcome  Outcome

	buffer    *promptBuffer
	truncated bool
	textAt    time.Time // first non-blank text after the password was sent
}

// Login negotiates and then runs the login exchange. It is shorthand for
// Negotiate followed by Authenticate.
func (s *Session) Login(ctx context.Context) (Outcome, error) {
	if err := s.Negotiate(ctx); err != nil {
		return OutcomePending, err
	}
	return s.Authenticate(ctx)
}

// Negotiate answers option negotiation until it settles, then moves the
// session to LOGIN. Negotiation is settled by whichever comes first: the
// username prompt showing up in the text, or text having flowed for
// QuietInterval without a new negotiation request.
func (s *Session) Negotiate(ctx context.Context) error {
	if s.phase != PhaseNegotiating {
		return &StateError{Op: "negotiate", Phase: s.phase}
	}

	buffer, err := newPromptBuffer(s.cfg.MaxPromptBuffer)
	if err != nil {
		return err
	}
	attempt := &LoginAttempt{Awaiting: AwaitingUsername, buffer: buffer}
	if len(s.carry) > 0 {
		attempt.buffer.Write(s.carry)
		s.carry = nil
	}

	start := time.Now()
	limit := start.Add(s.cfg.LoginTimeout)
	lastRead := start
	var quietFrom time.Time
	if attempt.buffer.Len() > 0 {
		quietFrom = start
	}

	reason := "username prompt"
wait:
	for !matchAny(s.patterns.username, attempt.buffer.Bytes()) {
		deadline := limit
		quiet, stalled := false, false
		if !quietFrom.IsZero() && s.cfg.QuietInterval > 0 {
			if q := quietFrom.Add(s.cfg.QuietInterval); q.Before(deadline) {
				deadline, quiet = q, true
			}
		}
		if d, ok := s.stallDeadline(lastRead); ok && d.Before(deadline) {
			deadline, quiet, stalled = d, false, true
		}

		var events []telnet.Event
		data, err := s.pump.next(ctx, deadline)
		switch {
		case errors.Is(err, errWaitExpired) && stalled:
			events = s.abandonSubnegotiation()
		case errors.Is(err, errWaitExpired) && quiet:
			reason = "quiet interval"
			break wait
		case err != nil:
			return s.waitFailed("negotiation", start, err)
		default:
			events = s.scanner.Scan(data)
		}
		lastRead = time.Now()

		sawText, negotiated, err := s.handle(events, attempt)
		if err != nil {
			return err
		}

		if sawText && quietFrom.IsZero() {
			quietFrom = lastRead
		}
		if negotiated && !quietFrom.IsZero() {
			quietFrom = lastRead
		}
	}

	s.attempt = attempt
	s.phase = PhaseLogin
	s.logger.Debug("Telnet negotiation complete", "reason", reason, "options", len(s.negotiator.Options()))
	return nil
}

// Authenticate submits the credentials at the prompts and classifies the
// reply. On rejection the session returns to NEGOTIATING and ErrLoginFailure
// is returned; set new credentials and call Login again to retry.
func (s *Session) Authenticate(ctx context.Context) (Outcome, error) {
	if s.phase != PhaseLogin || s.attempt == nil {
		return OutcomePending, &StateError{Op: "authenticate", Phase: s.phase}
	}
	attempt := s.attempt

	stageStart := time.Now()
	lastRead := stageStart
	for {
		progressed, err := s.advance(attempt)
		if err != nil {
			return attempt.Outcome, err
		}
		if attempt.Outcome != OutcomePending {
			return attempt.Outcome, nil
		}
		if progressed {
			stageStart = time.Now()
			continue
		}

		deadline := stageStart.Add(s.cfg.LoginTimeout)
		inWindow, stalled := false, false
		if attempt.Awaiting == AwaitingResult && !attempt.textAt.IsZero() {
			if w := attempt.textAt.Add(s.cfg.ResultWindow); w.Before(deadline) {
				deadline, inWindow = w, true
			}
		}
		if d, ok := s.stallDeadline(lastRead); ok && d.Before(deadline) {
			deadline, inWindow, stalled = d, false, true
		}

		var events []telnet.Event
		data, err := s.pump.next(ctx, deadline)
		switch {
		case errors.Is(err, errWaitExpired) && stalled:
			events = s.abandonSubnegotiation()
		case errors.Is(err, errWaitExpired) && inWindow:
			s.succeed(attempt, "no failure marker")
			return attempt.Outcome, nil
		case err != nil:
			return attempt.Outcome, s.waitFailed(attempt.Awaiting.stage(), stageStart, err)
		default:
			events = s.scanner.Scan(data)
		}
		lastRead = time.Now()

		if _, _, err := s.handle(events, attempt); err != nil {
			return attempt.Outcome, err
		}
		// A bare echoed newline is not an answer; wait for real text.
		if attempt.Awaiting == AwaitingResult && attempt.textAt.IsZero() &&
			len(bytes.TrimSpace(attempt.buffer.Bytes())) > 0 {
			attempt.textAt = lastRead
		}
	}
}

// advance checks the accumulated text against the prompt currently awaited
// and acts on a match. It reports whether the attempt moved on.
func (s *Session) advance(attempt *LoginAttempt) (bool, error) {
	text := attempt.buffer.Bytes()

	switch attempt.Awaiting {
	case AwaitingUsername:
		if !matchAny(s.patterns.username, text) {
			return false, nil
		}
		s.logger.Debug("Login prompt detected", "prompt", "username")
		if err := s.sendLine(s.creds.Username); err != nil {
			return false, err
		}
		attempt.buffer.Reset()
		attempt.Awaiting = AwaitingPassword
		return true, nil

	case AwaitingPassword:
		if !matchAny(s.patterns.password, text) {
			return false, nil
		}
		s.logger.Debug("Login prompt detected", "prompt", "password")
		if err := s.sendLine(s.creds.Password); err != nil {
			return false, err
		}
		attempt.buffer.Reset()
		attempt.Awaiting = AwaitingResult
		return true, nil

	case AwaitingResult:
		if marker, end, ok := matchMarker(s.patterns.failure, text); ok {
			s.reject(attempt, marker, text[end:])
			return true, &LoginError{Marker: marker}
		}
		if matchAny(s.patterns.success, text) {
			s.succeed(attempt, "shell prompt")
			return true, nil
		}
	}
	return false, nil
}

// handle answers negotiation found in events and feeds their text into the
// attempt's buffer.
func (s *Session) handle(events []telnet.Event, attempt *LoginAttempt) (sawText, negotiated bool, err error) {
	for _, ev := range events {
		switch ev.Kind {
		case telnet.EventData:
			s.logger.Debug("Telnet data [IN]", "len", len(ev.Data))
			attempt.buffer.Write(ev.Data)
			sawText = true
			if !attempt.truncated && attempt.buffer.Truncated() {
				attempt.truncated = true
				s.logger.Debug("Login prompt buffer full, dropping oldest text", "limit", s.cfg.MaxPromptBuffer)
			}
		case telnet.EventNegotiate:
			negotiated = true
			if _, err := s.negotiator.Handle(ev.Command, ev.Option); err != nil {
				return sawText, negotiated, s.fail(&ConnectionError{Op: "write", Err: err})
			}
		case telnet.EventUnhandled:
			s.negotiator.Unhandled(ev.Command, ev.Option)
		}
	}
	return sawText, negotiated, nil
}

// stallDeadline returns when an open sub-negotiation that has seen no input
// since lastRead is given up on.
func (s *Session) stallDeadline(lastRead time.Time) (time.Time, bool) {
	if !s.scanner.InSubnegotiation() {
		return time.Time{}, false
	}
	after := s.cfg.QuietInterval
	if after <= 0 {
		after = DefaultQuietInterval
	}
	return lastRead.Add(after), true
}

func (s *Session) abandonSubnegotiation() []telnet.Event {
	s.logger.Debug("Telnet sub-negotiation never finished, giving up on it")
	return s.scanner.AbandonSubnegotiation()
}

func (s *Session) sendLine(line string) error {
	if _, err := s.writer.Write([]byte(line + s.cfg.LineTerminator)); err != nil {
		return s.fail(&ConnectionError{Op: "write", Err: err})
	}
	return nil
}

func (s *Session) succeed(attempt *LoginAttempt, reason string) {
	attempt.Outcome = OutcomeSuccess
	s.attempt = nil
	s.phase = PhaseAuthenticated
	// Half an IAC sequence is meaningless from here on; hand it to Read as is.
	if residue := s.scanner.Pending(); len(residue) > 0 {
		s.pending = append(s.pending, residue...)
		s.scanner.Reset()
	}
	s.logger.Info("Login succeeded", "user", s.creds.Username, "reason", reason)
}

// reject records a refused login and rewinds the session so that Login can
// be run again from negotiation. rest is the text that followed the marker.
func (s *Session) reject(attempt *LoginAttempt, marker string, rest []byte) {
	attempt.Outcome = OutcomeFailure
	s.attempt = nil
	s.phase = PhaseNegotiating
	s.negotiator.Reset()

	// Hosts usually follow the rejection with a fresh login prompt.
	s.carry = bytes.Clone(rest)
	s.logger.Warn("Login rejected", "user", s.creds.Username, "marker", marker)
}
