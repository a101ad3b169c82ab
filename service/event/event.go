package event

import (
	"time"

	"github.com/viant/taskmail/internal/clock"
	"github.com/viant/taskmail/model/mail"
)

// Type identifies a mail lifecycle transition.
type Type string

const (
	TypeSubmitted Type = "submitted"
	TypeRejected  Type = "rejected"
	TypeExecuted  Type = "executed"
	TypeFailed    Type = "failed"
	TypeDiscarded Type = "discarded"
)

// Event describes one lifecycle transition of a mail.
type Event struct {
	Type      Type          `json:"type"`
	MailID    string        `json:"mailId"`
	Priority  int           `json:"priority"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	mail      *mail.Mail
}

// NewEvent creates an event for m.
func NewEvent(eventType Type, m *mail.Mail, err error, elapsed time.Duration) *Event {
	ret := &Event{
		Type:      eventType,
		Elapsed:   elapsed,
		CreatedAt: clock.Now(),
		mail:      m,
	}
	if m != nil {
		ret.MailID = m.ID()
		ret.Priority = m.Priority()
	}
	if err != nil {
		ret.Error = err.Error()
	}
	return ret
}

// Description formats the mail description; it is resolved on demand so
// producers never pay the formatting cost.
func (e *Event) Description() string {
	if e.mail == nil {
		return ""
	}
	return e.mail.String()
}

// Observer receives lifecycle events synchronously on the goroutine that
// caused them; implementations must not block.
type Observer func(*Event)

// Notify calls o when it is not nil.
func (o Observer) Notify(eventType Type, m *mail.Mail, err error, elapsed time.Duration) {
	if o == nil {
		return
	}
	o(NewEvent(eventType, m, err, elapsed))
}
