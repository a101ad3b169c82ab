package processor

import (
	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/service/mailbox"
)

// Option customises the processor.
type Option func(*Service)

// WithMailbox sets the mailbox; a new one is created otherwise.
func WithMailbox(mb *mailbox.TaskMailbox) Option {
	return func(s *Service) {
		s.mailbox = mb
	}
}

// WithActionExecutor sets the execution discipline shared by the default
// action and every executor created by the processor.
func WithActionExecutor(executor action.Executor) Option {
	return func(s *Service) {
		s.actionExecutor = executor
	}
}

// WithObserver sets the mail lifecycle observer.
func WithObserver(observer event.Observer) Option {
	return func(s *Service) {
		s.observer = observer
	}
}
