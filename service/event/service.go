package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/viant/taskmail/service/messaging"
	"github.com/viant/taskmail/service/messaging/memory"
)

// Service fans mail lifecycle events out to subscribed handlers. Events are
// published without blocking: when the queue is full they are dropped and
// counted, so observers never slow down the subtask goroutine.
type Service struct {
	queue        messaging.Queue[Event]
	memoryConfig memory.Config
	publisher    *Publisher
	listener     *Listener
	handlers     []func(*Event)
	mux          sync.RWMutex
	dropped      atomic.Int64
}

// New creates an event service; by default it uses a dropping memory queue.
func New(opts ...Option) *Service {
	ret := &Service{memoryConfig: memory.DefaultConfig()}
	ret.memoryConfig.DropWhenFull = true
	for _, opt := range opts {
		opt(ret)
	}
	if ret.queue == nil {
		ret.queue = memory.NewQueue[Event](ret.memoryConfig)
	}
	ret.publisher = NewPublisher(ret.queue)
	return ret
}

// Observer returns an Observer publishing into this service.
func (s *Service) Observer() Observer {
	return func(e *Event) {
		if err := s.publisher.Publish(context.Background(), e); err != nil {
			s.dropped.Add(1)
		}
	}
}

// Subscribe registers handler for every subsequently dispatched event.
func (s *Service) Subscribe(handler func(*Event)) {
	s.mux.Lock()
	s.handlers = append(s.handlers, handler)
	s.mux.Unlock()
}

// Dropped returns the number of events that could not be queued.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// Start begins dispatching queued events to handlers.
func (s *Service) Start(ctx context.Context) {
	s.listener = NewListener(s.publisher, s.dispatch)
	s.listener.Start(ctx)
}

// Stop closes the queue and waits until every buffered event was dispatched.
func (s *Service) Stop() {
	_ = s.queue.Close()
	if s.listener != nil {
		s.listener.Wait()
	}
}

func (s *Service) dispatch(e *Event) {
	s.mux.RLock()
	handlers := s.handlers
	s.mux.RUnlock()
	for _, handler := range handlers {
		handler(e)
	}
}
