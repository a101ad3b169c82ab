package mailbox

import (
	"fmt"

	"github.com/viant/taskmail/model/mail"
)

// State represents the lifecycle state of a mailbox. States only move
// forward: OPEN -> QUIESCED -> CLOSED, or OPEN -> CLOSED.
type State int32

const (
	StateOpen State = iota
	StateQuiesced
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateQuiesced:
		return "quiesced"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// IsAcceptingMails reports whether every priority level is admitted.
func (s State) IsAcceptingMails() bool {
	return s == StateOpen
}

// transition returns the state after moving to target and whether the move
// happened. Backward and self transitions are ignored.
func (s State) transition(target State) (State, bool) {
	if target <= s || target > StateClosed {
		return s, false
	}
	return target, true
}

// admits decides whether a mail with the given priority and options may be
// queued in state s. A quiesced mailbox still takes control mail so work
// already in flight (e.g. a running checkpoint) can complete, but it refuses
// new record-processing and deferrable mail.
func admits(s State, priority int, options mail.Options) error {
	switch s {
	case StateOpen:
		return nil
	case StateQuiesced:
		if priority <= mail.MinPriority {
			return fmt.Errorf("%w: quiesced mailbox rejects priority %d", ErrClosed, priority)
		}
		if options.Deferrable {
			return fmt.Errorf("%w: quiesced mailbox rejects deferrable mail", ErrClosed)
		}
		return nil
	}
	return ErrClosed
}
