package taskmail

import (
	"fmt"
	"sync"

	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/progress"
	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/broker"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/service/messaging/memory"
	"github.com/viant/taskmail/service/processor"
	"github.com/viant/taskmail/service/timer"
	"github.com/viant/taskmail/tracing"
)

// Service assembles the mailbox runtime of one subtask.
type Service struct {
	runtime        *Runtime
	config         *Config
	subtask        string
	locker         sync.Locker
	actionExecutor action.Executor
	eventHandlers  []func(*event.Event)
	broker         *broker.Broker[any]
	tracingErr     error
}

// New creates a service running defaultAction whenever no mail is pending.
func New(defaultAction processor.DefaultAction, options ...Option) (*Service, error) {
	ret := &Service{}
	if err := ret.init(defaultAction, options); err != nil {
		return nil, err
	}
	return ret, nil
}

// Runtime returns the runtime façade.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

func (s *Service) init(defaultAction processor.DefaultAction, options []Option) error {
	for _, option := range options {
		option(s)
	}
	if s.tracingErr != nil {
		return fmt.Errorf("failed to init tracing: %w", s.tracingErr)
	}
	s.ensureBaseSetup()
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.config.Tracing.Enabled {
		tc := s.config.Tracing
		if err := tracing.Init(tc.ServiceName, tc.ServiceVersion, tc.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}

	tracker := progress.New(s.subtask, nil)
	var events *event.Service
	observer := event.Observer(tracker.Handle)
	if s.config.Events.Enabled {
		queueConfig := memory.DefaultConfig()
		queueConfig.QueueBuffer = s.config.Events.Buffer
		queueConfig.MaxRetries = s.config.Events.MaxRetries
		queueConfig.DropWhenFull = true
		events = event.New(event.WithMemoryQueueConfig(queueConfig))
		events.Subscribe(tracker.Handle)
		for _, handler := range s.eventHandlers {
			events.Subscribe(handler)
		}
		observer = events.Observer()
	}

	proc, err := processor.New(defaultAction,
		processor.WithActionExecutor(s.discipline()),
		processor.WithObserver(observer))
	if err != nil {
		return err
	}
	location, _ := s.config.Timer.location()
	s.runtime = &Runtime{
		config:    s.config,
		processor: proc,
		timers:    timer.New(proc.Executor(mail.TimerPriority), timer.WithLocation(location)),
		broker:    s.broker,
		events:    events,
		progress:  tracker,
		done:      make(chan struct{}),
	}
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.subtask == "" {
		s.subtask = s.config.Subtask
	}
	if s.broker == nil {
		s.broker = broker.New[any]()
	}
}

func (s *Service) discipline() action.Executor {
	switch {
	case s.actionExecutor != nil:
		return s.actionExecutor
	case s.locker != nil:
		return action.Synchronized(s.locker)
	case s.config.Runtime.Discipline == DisciplineSynchronized:
		return action.Synchronized(&sync.Mutex{})
	}
	return action.Immediate()
}
