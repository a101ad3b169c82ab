package mailbox

import "errors"

var (
	// ErrClosed is returned when the mailbox no longer admits the mail or has
	// nothing left to hand out. It is a definitive shutdown signal.
	ErrClosed = errors.New("mailbox is closed")
	// ErrInterrupted is returned when a blocking take is abandoned because its
	// context was cancelled before any qualifying mail arrived.
	ErrInterrupted = errors.New("mailbox take interrupted")
	// ErrInvalidPriority is returned for mail below MinPriority.
	ErrInvalidPriority = errors.New("invalid mail priority")
	// ErrNilMail is returned when putting a nil mail.
	ErrNilMail = errors.New("mail is nil")
)
