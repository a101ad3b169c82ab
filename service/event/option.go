package event

import (
	"github.com/viant/taskmail/service/messaging"
	"github.com/viant/taskmail/service/messaging/memory"
)

type Option func(s *Service)

// WithQueue sets the queue events are published to.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithMemoryQueueConfig sets the configuration of the default memory queue.
func WithMemoryQueueConfig(config memory.Config) Option {
	return func(s *Service) {
		s.memoryConfig = config
	}
}

// WithHandler subscribes handler before the service starts.
func WithHandler(handler func(*Event)) Option {
	return func(s *Service) {
		s.handlers = append(s.handlers, handler)
	}
}
