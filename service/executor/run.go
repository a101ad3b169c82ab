package executor

import (
	"context"

	"github.com/viant/taskmail/internal/clock"
	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/tracing"
)

// RunMail runs m on the calling goroutine inside a tracing span and reports
// the outcome to observer. The command error is returned unchanged.
func RunMail(ctx context.Context, m *mail.Mail, observer event.Observer) error {
	_, span := tracing.StartSpan(ctx, "mail.run", tracing.KindConsumer)
	span.WithAttributes(tracing.MailAttributes(m.ID(), m.Options().Urgent)).WithPriority(m.Priority())
	started := clock.Now()
	err := m.Run()
	tracing.EndSpan(span, err)
	if err != nil {
		observer.Notify(event.TypeFailed, m, err, clock.Now().Sub(started))
	} else {
		observer.Notify(event.TypeExecuted, m, nil, clock.Now().Sub(started))
	}
	return err
}

// Wrap converts a mail failure into the *action.CommandError surfaced to the
// loop that ran it. The description is only formatted on failure.
func Wrap(m *mail.Mail, err error) error {
	if err == nil {
		return nil
	}
	return action.WrapIfNecessary(m.String(), err)
}
