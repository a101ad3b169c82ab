package processor

import "fmt"

// State of the processor loop.
type State int32

const (
	// StateRunning alternates mail and default action (mailbox open).
	StateRunning State = iota
	// StateDraining runs only already-admitted and control mail (mailbox quiesced).
	StateDraining
	// StateStopped means the loop exited for good (mailbox closed, all
	// actions completed, drained or failed).
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}
