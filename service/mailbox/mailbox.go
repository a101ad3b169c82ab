package mailbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/viant/taskmail/model/mail"
)

// level holds the mail of one priority in arrival order.
type level struct {
	priority int
	items    []*mail.Mail
}

func (l *level) pushBack(m *mail.Mail) {
	l.items = append(l.items, m)
}

func (l *level) pushFront(m *mail.Mail) {
	l.items = append(l.items, nil)
	copy(l.items[1:], l.items)
	l.items[0] = m
}

func (l *level) pop() *mail.Mail {
	m := l.items[0]
	l.items[0] = nil
	l.items = l.items[1:]
	if len(l.items) == 0 {
		l.items = nil
	}
	return m
}

// TaskMailbox is the priority mailbox of one subtask.
type TaskMailbox struct {
	mu      sync.Mutex
	levels  []*level // sorted by descending priority
	state   atomic.Int32
	count   atomic.Int64
	waiters int
	signal  chan struct{}
}

// New creates an open mailbox.
func New() *TaskMailbox {
	return &TaskMailbox{signal: make(chan struct{})}
}

// State returns the current lifecycle state.
func (b *TaskMailbox) State() State {
	return State(b.state.Load())
}

// HasMail reports whether any mail is queued at any level. The answer is
// advisory: it may be stale by the time the caller acts on it.
func (b *TaskMailbox) HasMail() bool {
	return b.count.Load() > 0
}

// Size returns the number of queued mails.
func (b *TaskMailbox) Size() int {
	return int(b.count.Load())
}

// Put appends m to the level of its priority. Urgent mail goes to the head
// of the level instead.
func (b *TaskMailbox) Put(m *mail.Mail) error {
	if m == nil {
		return ErrNilMail
	}
	return b.put(m, m.Options().Urgent)
}

// PutFirst inserts m at the head of its priority level.
func (b *TaskMailbox) PutFirst(m *mail.Mail) error {
	if m == nil {
		return ErrNilMail
	}
	return b.put(m, true)
}

func (b *TaskMailbox) put(m *mail.Mail, first bool) error {
	priority := m.Priority()
	if priority < mail.MinPriority {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := admits(b.State(), priority, m.Options()); err != nil {
		return err
	}
	l := b.levelLocked(priority)
	if first {
		l.pushFront(m)
	} else {
		l.pushBack(m)
	}
	b.count.Add(1)
	b.notifyLocked()
	return nil
}

// Take blocks until a mail with priority >= minPriority is available and
// returns the head of the highest such level. It returns ErrClosed once the
// mailbox is closed, and an error wrapping ErrInterrupted and ctx.Err() when
// ctx is done first.
func (b *TaskMailbox) Take(ctx context.Context, minPriority int) (*mail.Mail, error) {
	m, _, err := b.take(ctx, minPriority, false)
	return m, err
}

// TakeWhileOpen is Take for a consumer that must not wait once the mailbox
// stops accepting every mail: it returns ok=false when the mailbox is
// quiesced and nothing qualifying is queued.
func (b *TaskMailbox) TakeWhileOpen(ctx context.Context, minPriority int) (*mail.Mail, bool, error) {
	return b.take(ctx, minPriority, true)
}

func (b *TaskMailbox) take(ctx context.Context, minPriority int, whileOpen bool) (*mail.Mail, bool, error) {
	for {
		b.mu.Lock()
		if m := b.takeLocked(minPriority); m != nil {
			b.mu.Unlock()
			return m, true, nil
		}
		switch state := b.State(); {
		case state == StateClosed:
			b.mu.Unlock()
			return nil, false, ErrClosed
		case whileOpen && state != StateOpen:
			b.mu.Unlock()
			return nil, false, nil
		}
		signal := b.signal
		b.waiters++
		b.mu.Unlock()

		select {
		case <-signal:
			b.mu.Lock()
			b.waiters--
			b.mu.Unlock()
		case <-ctx.Done():
			b.mu.Lock()
			b.waiters--
			b.mu.Unlock()
			return nil, false, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
	}
}

// TryTake is the non-blocking form of Take. It returns ok=false when no mail
// qualifies and ErrClosed when the mailbox is closed.
func (b *TaskMailbox) TryTake(minPriority int) (*mail.Mail, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m := b.takeLocked(minPriority); m != nil {
		return m, true, nil
	}
	if b.State() == StateClosed {
		return nil, false, ErrClosed
	}
	return nil, false, nil
}

// Quiesce moves an open mailbox to QUIESCED and wakes blocked takers.
func (b *TaskMailbox) Quiesce() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if next, ok := b.State().transition(StateQuiesced); ok {
		b.state.Store(int32(next))
		b.notifyLocked()
	}
}

// Close moves the mailbox to CLOSED, wakes every blocked taker and returns
// the mail that was still queued, highest priority first. Closing twice
// returns nil.
func (b *TaskMailbox) Close() []*mail.Mail {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, ok := b.State().transition(StateClosed)
	if !ok {
		return nil
	}
	b.state.Store(int32(next))
	remaining := b.drainLocked()
	close(b.signal)
	b.signal = make(chan struct{})
	return remaining
}

// Drain removes and returns every queued mail without changing the state.
func (b *TaskMailbox) Drain() []*mail.Mail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drainLocked()
}

// RunExclusively runs fn while holding the mailbox lock so that no mail can
// be put or taken concurrently. fn must not call back into the mailbox.
func (b *TaskMailbox) RunExclusively(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

func (b *TaskMailbox) levelLocked(priority int) *level {
	idx := sort.Search(len(b.levels), func(i int) bool {
		return b.levels[i].priority <= priority
	})
	if idx < len(b.levels) && b.levels[idx].priority == priority {
		return b.levels[idx]
	}
	l := &level{priority: priority}
	b.levels = append(b.levels, nil)
	copy(b.levels[idx+1:], b.levels[idx:])
	b.levels[idx] = l
	return l
}

func (b *TaskMailbox) takeLocked(minPriority int) *mail.Mail {
	if b.count.Load() == 0 {
		return nil
	}
	for _, l := range b.levels {
		if l.priority < minPriority {
			return nil
		}
		if len(l.items) > 0 {
			b.count.Add(-1)
			return l.pop()
		}
	}
	return nil
}

func (b *TaskMailbox) drainLocked() []*mail.Mail {
	var result []*mail.Mail
	for _, l := range b.levels {
		result = append(result, l.items...)
		l.items = nil
	}
	b.count.Store(0)
	return result
}

func (b *TaskMailbox) notifyLocked() {
	if b.waiters == 0 {
		return
	}
	close(b.signal)
	b.signal = make(chan struct{})
}
