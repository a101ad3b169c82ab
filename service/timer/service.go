package timer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/viant/taskmail/internal/clock"
	"github.com/viant/taskmail/internal/idgen"
	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/service/action"
)

// Callback runs on the subtask goroutine with the time the timer fired.
type Callback func(firedAt time.Time) error

// Submitter enqueues commands into the subtask mailbox.
type Submitter interface {
	Execute(options mail.Options, command action.Command, descriptionFormat string, descriptionArgs ...interface{}) error
}

// Parser accepts 5 or 6 field specs (optional seconds) and descriptors
// such as @every 1m.
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type registration struct {
	id       string
	callback Callback
	timer    *time.Timer
	entryID  cron.EntryID
	periodic bool
}

// Service turns timer firings into mail.
type Service struct {
	submitter Submitter
	location  *time.Location
	cron      *cron.Cron

	mux      sync.Mutex
	timers   map[string]*registration
	started  bool
	quiesced bool
	inFlight sync.WaitGroup
	fired    atomic.Int64
	dropped  atomic.Int64
}

// New creates a timer service submitting through submitter.
func New(submitter Submitter, options ...Option) *Service {
	s := &Service{
		submitter: submitter,
		location:  time.Local,
		timers:    make(map[string]*registration),
	}
	for _, opt := range options {
		opt(s)
	}
	s.cron = cron.New(cron.WithParser(Parser), cron.WithLocation(s.location))
	return s
}

// RegisterTimer fires callback once at the given time. A time in the past
// fires as soon as possible.
func (s *Service) RegisterTimer(at time.Time, callback Callback) (string, error) {
	if callback == nil {
		return "", ErrNilCallback
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.quiesced {
		return "", ErrQuiesced
	}
	reg := &registration{id: idgen.NewWithPrefix("timer"), callback: callback}
	reg.timer = time.AfterFunc(clock.Until(at), func() { s.fire(reg) })
	s.timers[reg.id] = reg
	return reg.id, nil
}

// Schedule fires callback on every activation of the cron spec once the
// service is started.
func (s *Service) Schedule(spec string, callback Callback) (string, error) {
	if callback == nil {
		return "", ErrNilCallback
	}
	schedule, err := Parser.Parse(spec)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidSpec, spec, err)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.quiesced {
		return "", ErrQuiesced
	}
	reg := &registration{id: idgen.NewWithPrefix("cron"), callback: callback, periodic: true}
	reg.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() { s.fire(reg) }))
	s.timers[reg.id] = reg
	return reg.id, nil
}

// Cancel removes a timer; it reports whether the timer was still pending.
// A firing already turned into mail still runs.
func (s *Service) Cancel(id string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	reg, ok := s.timers[id]
	if !ok {
		return false
	}
	s.cancelLocked(reg)
	return true
}

// Pending returns the number of registered timers.
func (s *Service) Pending() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.timers)
}

// Fired returns the number of firings submitted as mail.
func (s *Service) Fired() int64 {
	return s.fired.Load()
}

// Dropped returns the number of firings the mailbox rejected.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// Start activates cron schedules.
func (s *Service) Start() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.started || s.quiesced {
		return
	}
	s.started = true
	s.cron.Start()
}

// Quiesce cancels every timer; no further firing is submitted.
func (s *Service) Quiesce() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.quiesced {
		return
	}
	s.quiesced = true
	for _, reg := range s.timers {
		s.cancelLocked(reg)
	}
	if s.started {
		s.cron.Stop()
	}
}

// Shutdown quiesces the service and waits for in-flight firings to be
// submitted or ctx to be done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.Quiesce()
	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) cancelLocked(reg *registration) {
	if reg.timer != nil {
		reg.timer.Stop()
	}
	if reg.periodic {
		s.cron.Remove(reg.entryID)
	}
	delete(s.timers, reg.id)
}

func (s *Service) fire(reg *registration) {
	s.mux.Lock()
	if _, ok := s.timers[reg.id]; !ok || s.quiesced {
		s.mux.Unlock()
		return
	}
	if !reg.periodic {
		delete(s.timers, reg.id)
	}
	s.inFlight.Add(1)
	s.mux.Unlock()
	defer s.inFlight.Done()

	firedAt := clock.Now()
	err := s.submitter.Execute(mail.Options{}, func() error {
		return reg.callback(firedAt)
	}, "timer %s fired at %v", reg.id, firedAt)
	if err != nil {
		s.dropped.Add(1)
		log.Printf("timer %s: dropped firing: %v", reg.id, err)
		return
	}
	s.fired.Add(1)
}
