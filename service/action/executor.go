package action

import (
	"sync"
	"sync/atomic"
)

// Command is a fallible unit of work.
type Command func() error

// Executor runs commands under a subtask's execution discipline.
type Executor interface {
	// Run executes command to completion and returns its error unchanged.
	// A panic raised by command is recovered and returned as *PanicError.
	Run(command Command) error
}

// RunnerFunc adapts a function to the Executor interface.
type RunnerFunc func(command Command) error

// Run calls f(command).
func (f RunnerFunc) Run(command Command) error {
	return f(command)
}

type immediate struct{}

// Run executes command on the calling goroutine without further guarding.
func (immediate) Run(command Command) error {
	return Call(command)
}

// Immediate returns an Executor for tasks whose only concurrency control is
// the single mailbox consumer.
func Immediate() Executor {
	return immediate{}
}

type synchronized struct {
	locker sync.Locker
	depth  atomic.Int32
}

// Run executes command while holding the locker. A command started from
// within another command of the same executor (a yield inside the default
// action or inside a mail) already owns the lock and runs without taking it
// again.
func (s *synchronized) Run(command Command) error {
	if s.depth.Load() > 0 {
		s.depth.Add(1)
		defer s.depth.Add(-1)
		return Call(command)
	}
	s.locker.Lock()
	s.depth.Add(1)
	defer func() {
		s.depth.Add(-1)
		s.locker.Unlock()
	}()
	return Call(command)
}

// Synchronized returns an Executor that holds locker for the duration of
// each command. Hosts that expose a checkpoint lock to legacy sources pass
// that lock here. Run must only be called from the mailbox consumer
// goroutine; nested calls from that goroutine are reentrant.
func Synchronized(locker sync.Locker) Executor {
	if locker == nil {
		return Immediate()
	}
	return &synchronized{locker: locker}
}

// Call runs command on the calling goroutine, converting a panic into a
// *PanicError. A nil command succeeds.
func Call(command Command) (err error) {
	if command == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return command()
}
