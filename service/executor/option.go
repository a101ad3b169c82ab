package executor

import "github.com/viant/taskmail/service/event"

// Option customises an executor.
type Option func(*Service)

// WithDefaultActionProbe binds the executor to the processor whose default
// action availability IsIdle consults.
func WithDefaultActionProbe(probe DefaultActionProbe) Option {
	return func(s *Service) {
		s.probe = probe
	}
}

// WithObserver sets the lifecycle event observer.
func WithObserver(observer event.Observer) Option {
	return func(s *Service) {
		s.observer = observer
	}
}
