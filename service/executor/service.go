package executor

import (
	"context"
	"fmt"

	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/service/mailbox"
)

// DefaultActionProbe reports whether the owning processor currently has a
// default action to run.
type DefaultActionProbe interface {
	IsDefaultActionAvailable() bool
}

// Service is a MailboxExecutor: a per-priority handle over a shared mailbox.
// Execute and Submit may be called from any goroutine; Yield and TryYield
// only from the subtask goroutine.
type Service struct {
	mailbox        *mailbox.TaskMailbox
	priority       int
	actionExecutor action.Executor
	probe          DefaultActionProbe
	observer       event.Observer
}

// New creates an executor submitting mail at priority.
func New(mb *mailbox.TaskMailbox, priority int, actionExecutor action.Executor, options ...Option) *Service {
	if actionExecutor == nil {
		actionExecutor = action.Immediate()
	}
	s := &Service{
		mailbox:        mb,
		priority:       priority,
		actionExecutor: actionExecutor,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Priority returns the priority of mail created by this executor.
func (s *Service) Priority() int {
	return s.priority
}

// Execute enqueues command as a mail. A mailbox that is closed (or quiesced
// for this priority) turns into an error wrapping both ErrRejected and the
// mailbox cause; the command is never silently dropped.
func (s *Service) Execute(options mail.Options, command action.Command, descriptionFormat string, descriptionArgs ...interface{}) error {
	m := mail.New(options, command, s.priority, s.actionExecutor, descriptionFormat, descriptionArgs...)
	return s.put(m)
}

// Submit enqueues command and returns a Future completed with the command
// error. The command error does not fail the processor loop; it is only
// reported through the Future.
func (s *Service) Submit(options mail.Options, command action.Command, descriptionFormat string, descriptionArgs ...interface{}) (*Future, error) {
	future := newFuture()
	wrapped := func() error {
		future.complete(action.Call(command))
		return nil
	}
	cancel := func() { future.complete(ErrCancelled) }
	m := mail.NewWithCancel(options, wrapped, cancel, s.priority, s.actionExecutor, descriptionFormat, descriptionArgs...)
	if err := s.put(m); err != nil {
		return nil, err
	}
	return future, nil
}

func (s *Service) put(m *mail.Mail) error {
	if err := s.mailbox.Put(m); err != nil {
		s.observer.Notify(event.TypeRejected, m, err, 0)
		return fmt.Errorf("%w: %v: %w", ErrRejected, m, err)
	}
	s.observer.Notify(event.TypeSubmitted, m, nil, 0)
	return nil
}

// Yield blocks until a mail at this executor's priority or above is
// available and runs it. A failing mail is returned as *action.CommandError.
func (s *Service) Yield(ctx context.Context) error {
	m, err := s.mailbox.Take(ctx, s.priority)
	if err != nil {
		return err
	}
	return Wrap(m, RunMail(ctx, m, s.observer))
}

// TryYield runs one qualifying mail if present and reports whether it did.
// ctx is the mail run context, as with Yield.
func (s *Service) TryYield(ctx context.Context) (bool, error) {
	m, ok, err := s.mailbox.TryTake(s.priority)
	if err != nil || !ok {
		return false, err
	}
	return true, Wrap(m, RunMail(ctx, m, s.observer))
}

// IsIdle reports a quiescent point: no default action available, no mail
// queued and the mailbox still accepting every submission.
func (s *Service) IsIdle() bool {
	defaultActionAvailable := s.probe != nil && s.probe.IsDefaultActionAvailable()
	return !defaultActionAvailable &&
		!s.mailbox.HasMail() &&
		s.mailbox.State().IsAcceptingMails()
}

// ShouldInterrupt signals that a long-running default action should give
// way because mail is waiting. It is advisory only.
func (s *Service) ShouldInterrupt() bool {
	return s.mailbox.HasMail()
}
