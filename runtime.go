package taskmail

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/progress"
	"github.com/viant/taskmail/service/broker"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/service/executor"
	"github.com/viant/taskmail/service/processor"
	"github.com/viant/taskmail/service/timer"
	"golang.org/x/sync/errgroup"
)

// Runtime drives the processor loop of one subtask on its own goroutine.
type Runtime struct {
	config    *Config
	processor *processor.Service
	timers    *timer.Service
	broker    *broker.Broker[any]
	events    *event.Service
	progress  *progress.Progress

	started  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

// Start runs the mailbox loop until it stops, ctx is cancelled or Shutdown
// is called. It returns immediately. The context handed to the default action
// and to mail carries the runtime's progress tracker.
func (r *Runtime) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx, r.cancel = context.WithCancel(ctx)
	if r.events != nil {
		r.events.Start(ctx)
	}
	r.timers.Start()

	group, groupCtx := errgroup.WithContext(ctx)
	loopCtx := progress.WithTracker(groupCtx, r.progress)
	group.Go(func() error {
		defer r.timers.Quiesce()
		return r.processor.RunMailboxLoop(loopCtx)
	})
	go func() {
		r.err = group.Wait()
		if r.err != nil && !errors.Is(r.err, context.Canceled) {
			log.Printf("subtask %v: mailbox loop stopped: %v", r.progress.Subtask, r.err)
		}
		close(r.done)
	}()
	return nil
}

// Executor returns a MailboxExecutor submitting mail at priority.
func (r *Runtime) Executor(priority int) *executor.Service {
	return r.processor.Executor(priority)
}

// MainExecutor returns the executor at the record-processing priority.
func (r *Runtime) MainExecutor() *executor.Service {
	return r.processor.MainExecutor()
}

// Processor returns the underlying mailbox processor.
func (r *Runtime) Processor() *processor.Service {
	return r.processor
}

// Timers returns the processing-time timer service.
func (r *Runtime) Timers() *timer.Service {
	return r.timers
}

// Broker returns the broker shared by subtasks of this runtime.
func (r *Runtime) Broker() *broker.Broker[any] {
	return r.broker
}

// Progress returns the live mail counters.
func (r *Runtime) Progress() *progress.Progress {
	return r.progress
}

// Events returns the event service or nil when events are disabled.
func (r *Runtime) Events() *event.Service {
	return r.events
}

// State returns the processor loop state.
func (r *Runtime) State() processor.State {
	return r.processor.State()
}

// Quiesce stops timers and low-priority admission; the loop drains admitted
// mail and stops.
func (r *Runtime) Quiesce() {
	r.timers.Quiesce()
	r.processor.Quiesce()
}

// Close closes the mailbox without draining and returns the discarded mail.
func (r *Runtime) Close() []*mail.Mail {
	r.timers.Quiesce()
	discarded := r.processor.Close()
	if len(discarded) > 0 {
		log.Printf("subtask %v: discarded %d mail(s) on close", r.progress.Subtask, len(discarded))
	}
	return discarded
}

// Wait blocks until the loop goroutine exits and returns its error.
func (r *Runtime) Wait() error {
	if !r.started.Load() {
		return ErrNotStarted
	}
	<-r.done
	return r.err
}

// Shutdown quiesces timers and the mailbox, waits for the loop to drain
// (bounded by Config.Runtime.ShutdownTimeout), closes the mailbox and stops
// event dispatching. When draining times out the loop context is cancelled
// before the mailbox is closed. It returns the loop error, if any.
func (r *Runtime) Shutdown(ctx context.Context) error {
	drainCtx, cancel := context.WithTimeout(ctx, r.config.Runtime.ShutdownTimeout)
	defer cancel()
	if err := r.timers.Shutdown(drainCtx); err != nil {
		log.Printf("subtask %v: timer shutdown: %v", r.progress.Subtask, err)
	}
	r.processor.Quiesce()

	var err error
	if r.started.Load() {
		select {
		case <-r.done:
		case <-drainCtx.Done():
			log.Printf("subtask %v: mailbox loop did not drain within %v", r.progress.Subtask, r.config.Runtime.ShutdownTimeout)
			r.cancel()
		}
	}
	r.Close()
	if r.started.Load() {
		select {
		case <-r.done:
			err = r.err
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	r.stopOnce.Do(func() {
		if r.events != nil {
			r.events.Stop()
		}
		if r.cancel != nil {
			r.cancel()
		}
	})
	return err
}
