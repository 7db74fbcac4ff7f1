package session

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Every error returned by a Session matches exactly one of
// these with errors.Is.
var (
	// ErrConnection means the stream was closed or failed. The session is CLOSED.
	ErrConnection = errors.New("connection error")
	// ErrProtocolTimeout means negotiation never settled or a prompt never
	// arrived in time. The session is CLOSED.
	ErrProtocolTimeout = errors.New("protocol timeout")
	// ErrLoginFailure means the remote host rejected the credentials. The
	// session is back in NEGOTIATING and Login may be called again.
	ErrLoginFailure = errors.New("login failed")
	// ErrInvalidState means an operation was called in the wrong phase.
	// Nothing was sent and the session is unchanged.
	ErrInvalidState = errors.New("invalid session state")
)

// ConnectionError wraps a transport failure.
type ConnectionError struct {
	Op  string // "read", "write" or "close"
	Err error  // underlying error, io.EOF when the stream ended
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConnection, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// TimeoutError reports which wait ran out. Err is set when the wait was cut
// short by a context rather than by LoginTimeout.
type TimeoutError struct {
	Stage string // e.g. "negotiation", "username prompt"
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: no %s after %s", ErrProtocolTimeout, e.Stage, e.After.Round(time.Millisecond))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrProtocolTimeout }

// StateError is returned when an operation is not valid in the current phase.
type StateError struct {
	Op    string
	Phase Phase
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s not allowed in phase %s", ErrInvalidState, e.Op, e.Phase)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// LoginError carries the text that identified a rejected login.
type LoginError struct {
	Marker string // the failure marker that matched
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("%s: remote reported %q", ErrLoginFailure, e.Marker)
}

func (e *LoginError) Is(target error) bool { return target == ErrLoginFailure }
