package processor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/service/executor"
	"github.com/viant/taskmail/service/mailbox"
	"github.com/viant/taskmail/tracing"
)

// DefaultAction runs one quantum of record processing. It may suspend itself
// through the controller when no input is available.
type DefaultAction func(ctx context.Context, controller Controller) error

// Service is the mailbox processor of one subtask.
type Service struct {
	mailbox        *mailbox.TaskMailbox
	defaultAction  DefaultAction
	actionExecutor action.Executor
	observer       event.Observer
	controller     *controller
	mainExecutor   *executor.Service

	// touched only by the goroutine consuming the mailbox
	loopSuspended bool
	suspension    *suspension

	available atomic.Bool
	completed atomic.Bool
	running   atomic.Bool
	stopped   atomic.Bool
}

// New creates a processor around defaultAction.
func New(defaultAction DefaultAction, options ...Option) (*Service, error) {
	if defaultAction == nil {
		return nil, ErrDefaultActionRequired
	}
	s := &Service{defaultAction: defaultAction}
	for _, opt := range options {
		opt(s)
	}
	if s.mailbox == nil {
		s.mailbox = mailbox.New()
	}
	if s.actionExecutor == nil {
		s.actionExecutor = action.Immediate()
	}
	s.controller = &controller{service: s}
	s.available.Store(true)
	s.mainExecutor = s.Executor(mail.MinPriority)
	return s, nil
}

// Mailbox returns the processor mailbox.
func (s *Service) Mailbox() *mailbox.TaskMailbox {
	return s.mailbox
}

// Executor returns a MailboxExecutor bound to this processor at priority.
func (s *Service) Executor(priority int) *executor.Service {
	return executor.New(s.mailbox, priority, s.actionExecutor,
		executor.WithDefaultActionProbe(s),
		executor.WithObserver(s.observer))
}

// MainExecutor returns the executor at the record-processing priority.
func (s *Service) MainExecutor() *executor.Service {
	return s.mainExecutor
}

// IsDefaultActionAvailable reports whether the default action is neither
// suspended nor completed.
func (s *Service) IsDefaultActionAvailable() bool {
	return s.available.Load() && !s.completed.Load()
}

// IsMailboxLoopRunning reports whether RunMailboxLoop is executing.
func (s *Service) IsMailboxLoopRunning() bool {
	return s.running.Load()
}

// IsCompleted reports whether AllActionsCompleted took effect.
func (s *Service) IsCompleted() bool {
	return s.completed.Load()
}

// State derives the loop state from the mailbox lifecycle.
func (s *Service) State() State {
	if s.stopped.Load() {
		return StateStopped
	}
	switch s.mailbox.State() {
	case mailbox.StateClosed:
		return StateStopped
	case mailbox.StateQuiesced:
		return StateDraining
	}
	return StateRunning
}

// RunMailboxLoop runs until the loop is suspended, all actions completed,
// the mailbox is closed or quiesced and empty, or a mail/default action
// fails. Failures are returned as *action.CommandError and are fatal; a
// cancelled ctx returns an error wrapping mailbox.ErrInterrupted.
func (s *Service) RunMailboxLoop(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer s.running.Store(false)

	s.loopSuspended = s.completed.Load()
	for !s.loopSuspended {
		if err := s.processMail(ctx); err != nil {
			return s.exit(err)
		}
		if s.loopSuspended {
			break
		}
		if s.mailbox.State() != mailbox.StateOpen {
			if !s.mailbox.HasMail() {
				s.stopped.Store(true)
				return nil
			}
			continue
		}
		if err := s.runDefaultAction(ctx); err != nil {
			return s.exit(err)
		}
	}
	if s.completed.Load() {
		s.stopped.Store(true)
	}
	return nil
}

// RunMailboxStep runs a single pending mail or, when none is pending, one
// quantum of the default action. It reports whether anything ran.
func (s *Service) RunMailboxStep(ctx context.Context) (bool, error) {
	if s.running.Load() {
		return false, ErrLoopRunning
	}
	m, ok, err := s.mailbox.TryTake(mail.MinPriority)
	if err != nil {
		return false, err
	}
	if ok {
		return true, s.runMail(ctx, m)
	}
	if s.IsDefaultActionAvailable() && s.mailbox.State() == mailbox.StateOpen {
		return true, s.runDefaultAction(ctx)
	}
	return false, nil
}

// Suspend makes a running loop return after the mail ahead of the request.
// The loop can be entered again afterwards.
func (s *Service) Suspend() {
	s.sendControlMail(func() { s.loopSuspended = true }, "suspend mailbox loop")
}

// AllActionsCompleted ends the loop for good; the default action is not
// invoked again.
func (s *Service) AllActionsCompleted() {
	s.sendControlMail(func() {
		s.completed.Store(true)
		s.loopSuspended = true
	}, "all actions completed")
}

// Quiesce moves the mailbox to QUIESCED; the loop drains what was admitted
// and stops.
func (s *Service) Quiesce() {
	s.mailbox.Quiesce()
}

// Drain quiesces the mailbox and runs every remaining mail on the calling
// goroutine. It must not be called while the loop runs.
func (s *Service) Drain(ctx context.Context) error {
	if s.running.Load() {
		return ErrLoopRunning
	}
	s.mailbox.Quiesce()
	for {
		m, ok, err := s.mailbox.TryTake(mail.MinPriority)
		if err != nil {
			if errors.Is(err, mailbox.ErrClosed) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
		if err = s.runMail(ctx, m); err != nil {
			return err
		}
	}
}

// Close closes the mailbox, cancels every mail that never ran and returns
// them to the caller for disposal.
func (s *Service) Close() []*mail.Mail {
	remaining := s.mailbox.Close()
	for _, m := range remaining {
		m.Cancel()
		s.observer.Notify(event.TypeDiscarded, m, nil, 0)
	}
	return remaining
}

func (s *Service) exit(err error) error {
	switch {
	case errors.Is(err, mailbox.ErrClosed):
		s.stopped.Store(true)
		return nil
	case errors.Is(err, mailbox.ErrInterrupted):
		return err
	}
	s.stopped.Store(true)
	return err
}

func (s *Service) processMail(ctx context.Context) error {
	for !s.loopSuspended && s.mailbox.HasMail() {
		m, ok, err := s.mailbox.TryTake(mail.MinPriority)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err = s.runMail(ctx, m); err != nil {
			return err
		}
	}
	for !s.loopSuspended && !s.IsDefaultActionAvailable() {
		m, ok, err := s.mailbox.TakeWhileOpen(ctx, mail.MinPriority)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err = s.runMail(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) runMail(ctx context.Context, m *mail.Mail) error {
	return executor.Wrap(m, executor.RunMail(ctx, m, s.observer))
}

func (s *Service) runDefaultAction(ctx context.Context) error {
	err := s.actionExecutor.Run(func() error {
		return s.defaultAction(ctx, s.controller)
	})
	if err == nil {
		return nil
	}
	_, span := tracing.StartSpan(ctx, "default-action", tracing.KindInternal)
	tracing.EndSpan(span, err)
	return action.WrapIfNecessary("default action", err)
}

func (s *Service) suspendDefaultAction() Suspension {
	if s.suspension == nil {
		s.suspension = &suspension{service: s}
		s.available.Store(false)
	}
	return s.suspension
}

// sendControlMail puts an urgent max-priority mail that runs fn on the
// consuming goroutine. It is dropped once the mailbox is closed.
func (s *Service) sendControlMail(fn func(), description string) {
	m := mail.New(mail.Urgent(), func() error {
		fn()
		return nil
	}, mail.MaxPriority, action.Immediate(), description)
	if err := s.mailbox.PutFirst(m); err != nil {
		return
	}
	s.observer.Notify(event.TypeSubmitted, m, nil, 0)
}
