package library

import "errors"

// State is where a Scraper is in its run
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateNavigated
	StateCollecting
	StateFinalized
	StatePersisted
	StateFailed
)

// ErrInvalidState is returned when an operation is called out of order
var ErrInvalidState = errors.New("operation not allowed in current state")

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateNavigated:
		return "navigated"
	case StateCollecting:
		return "collecting"
	case StateFinalized:
		return "finalized"
	case StatePersisted:
		return "persisted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
