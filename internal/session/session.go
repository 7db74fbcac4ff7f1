package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"telpy/internal/telnet"
)

// Credentials are the username and password submitted at the login prompts.
type Credentials struct {
	Username string
	Password string
}

// Session drives one Telnet connection from option negotiation through login
// to a raw command channel. A Session is owned by a single goroutine; none of
// its methods may be called concurrently.
type Session struct {
	stream   io.ReadWriter
	creds    Credentials
	cfg      Config
	patterns *compiledPatterns
	logger   *slog.Logger

	phase      Phase
	scanner    *telnet.Scanner
	writer     *telnet.Writer
	negotiator *telnet.Negotiator
	pump       *pump

	attempt *LoginAttempt
	carry   []byte // text left over from a rejected login, replayed into the next attempt
	pending []byte // bytes received but not yet returned by Read
}

// New starts a session on an already open stream. The stream is read from a
// background goroutine from this point on. Zero fields of cfg take their
// defaults, except QuietInterval; start from DefaultConfig to get the default
// quiet interval.
func New(stream io.ReadWriter, creds Credentials, cfg Config, logger *slog.Logger) (*Session, error) {
	cfg = cfg.withDefaults()

	patterns, err := cfg.Patterns.compile()
	if err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	writer := telnet.NewWriter(stream)
	scanner := telnet.NewScanner()
	scanner.MaxSubnegotiation = cfg.MaxPromptBuffer
	s := &Session{
		stream:     stream,
		creds:      creds,
		cfg:        cfg,
		patterns:   patterns,
		logger:     logger,
		phase:      PhaseNegotiating,
		scanner:    scanner,
		writer:     writer,
		negotiator: telnet.NewNegotiator(writer, logger),
	}
	s.pump = newPump(stream)
	return s, nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Options returns the negotiation state of every option seen so far.
func (s *Session) Options() []telnet.OptionState {
	return s.negotiator.Options()
}

// SetCredentials replaces the credentials used by the next Login. It is only
// allowed while negotiating, i.e. before the first login or after a rejected one.
func (s *Session) SetCredentials(creds Credentials) error {
	if s.phase != PhaseNegotiating {
		return &StateError{Op: "set credentials", Phase: s.phase}
	}
	s.creds = creds
	return nil
}

// Write sends p to the remote host unmodified. It is only valid once
// authenticated.
func (s *Session) Write(p []byte) (int, error) {
	if s.phase != PhaseAuthenticated {
		return 0, &StateError{Op: "write", Phase: s.phase}
	}
	n, err := s.writer.Write(p)
	if err != nil {
		return n, s.fail(&ConnectionError{Op: "write", Err: err})
	}
	return n, nil
}

// Read returns raw bytes from the remote host as they arrive. It is only
// valid once authenticated.
func (s *Session) Read(p []byte) (int, error) {
	if s.phase != PhaseAuthenticated {
		return 0, &StateError{Op: "read", Phase: s.phase}
	}
	if len(s.pending) == 0 {
		data, err := s.pump.next(context.Background(), time.Time{})
		if err != nil {
			return 0, s.fail(&ConnectionError{Op: "read", Err: err})
		}
		s.pending = data
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// RunCommand sends cmd followed by the line terminator and collects the raw
// output until the shell prompt comes back.
func (s *Session) RunCommand(ctx context.Context, cmd string) ([]byte, error) {
	if s.phase != PhaseAuthenticated {
		return nil, &StateError{Op: "run command", Phase: s.phase}
	}

	if _, err := s.Write([]byte(cmd + s.cfg.LineTerminator)); err != nil {
		return nil, err
	}
	s.logger.Debug("Command sent", "cmd", cmd)

	tail, err := newPromptBuffer(s.cfg.MaxPromptBuffer)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	start := time.Now()
	for {
		data := s.pending
		s.pending = nil
		if len(data) == 0 {
			data, err = s.pump.next(ctx, start.Add(s.cfg.LoginTimeout))
			if err != nil {
				return out.Bytes(), s.waitFailed("command prompt", start, err)
			}
		}

		out.Write(data)
		tail.Write(data)
		if matchAny(s.patterns.success, tail.Bytes()) {
			return out.Bytes(), nil
		}
	}
}

// Close ends the session and closes the stream if it can be closed. Calling
// Close more than once is harmless.
func (s *Session) Close() error {
	if s.phase == PhaseClosed {
		return nil
	}
	s.phase = PhaseClosed
	s.attempt = nil
	s.pump.stop()

	if closer, ok := s.stream.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return &ConnectionError{Op: "close", Err: err}
		}
	}
	s.logger.Debug("Telnet session closed")
	return nil
}

// fail closes the session after a fatal error and returns err.
func (s *Session) fail(err error) error {
	s.logger.Error("Telnet session failed", "phase", s.phase, "err", err)
	_ = s.Close()
	return err
}

// waitFailed turns an error from pump.next into the session error for stage
// and closes the session.
func (s *Session) waitFailed(stage string, start time.Time, err error) error {
	switch {
	case errors.Is(err, errWaitExpired):
		return s.fail(&TimeoutError{Stage: stage, After: time.Since(start)})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return s.fail(&TimeoutError{Stage: stage, After: time.Since(start), Err: err})
	default:
		return s.fail(&ConnectionError{Op: "read", Err: err})
	}
}
