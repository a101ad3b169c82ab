package processor

import "errors"

var (
	// ErrLoopRunning is returned when the loop is entered twice concurrently.
	ErrLoopRunning = errors.New("mailbox loop is already running")
	// ErrDefaultActionRequired is returned by New without a default action.
	ErrDefaultActionRequired = errors.New("default action is required")
)
