package executor

import "errors"

var (
	// ErrRejected is returned when the mailbox refuses a submission.
	ErrRejected = errors.New("mail rejected")
	// ErrCancelled completes a Future whose mail was discarded unrun.
	ErrCancelled = errors.New("mail cancelled")
)
