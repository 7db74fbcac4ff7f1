package session

import "fmt"

// Phase is where a Session is in its life.
type Phase int

const (
	PhaseNegotiating Phase = iota
	PhaseLogin
	PhaseAuthenticated
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseNegotiating:
		return "NEGOTIATING"
	case PhaseLogin:
		return "LOGIN"
	case PhaseAuthenticated:
		return "AUTHENTICATED"
	case PhaseClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Outcome is the result of a login attempt.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailure:
		return "FAILURE"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Awaiting is the prompt a login attempt is currently waiting for.
type Awaiting int

const (
	AwaitingUsername Awaiting = iota
	AwaitingPassword
	AwaitingResult
)

func (a Awaiting) String() string {
	switch a {
	case AwaitingUsername:
		return "AWAITING_USERNAME"
	case AwaitingPassword:
		return "AWAITING_PASSWORD"
	case AwaitingResult:
		return "AWAITING_RESULT"
	default:
		return fmt.Sprintf("Awaiting(%d)", int(a))
	}
}

// stage names the wait for timeout errors and logs.
func (a Awaiting) stage() string {
	switch a {
	case AwaitingUsername:
		return "username prompt"
	case AwaitingPassword:
		return "password prompt"
	default:
		return "login result"
	}
}
