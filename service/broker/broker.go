package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrAlreadyHandedIn = errors.New("object already handed in")
	ErrRemoved         = errors.New("key removed")
)

type slot[T any] struct {
	value   T
	ready   chan struct{}
	set     bool
	removed bool
	waiters int
}

// Broker maps keys to single objects handed in by a producer and taken by a
// consumer.
type Broker[T any] struct {
	mux   sync.Mutex
	slots map[string]*slot[T]
}

// New creates an empty broker.
func New[T any]() *Broker[T] {
	return &Broker[T]{slots: make(map[string]*slot[T])}
}

func (b *Broker[T]) slotLocked(key string) *slot[T] {
	s, ok := b.slots[key]
	if !ok {
		s = &slot[T]{ready: make(chan struct{})}
		b.slots[key] = s
	}
	return s
}

// Handin publishes value under key, waking a consumer blocked in Get.
func (b *Broker[T]) Handin(key string, value T) error {
	b.mux.Lock()
	defer b.mux.Unlock()
	s := b.slotLocked(key)
	if s.set {
		return fmt.Errorf("%w: %s", ErrAlreadyHandedIn, key)
	}
	s.value = value
	s.set = true
	close(s.ready)
	return nil
}

// Get blocks until a value was handed in under key, then removes and
// returns it. A Get blocked on a key that is removed returns ErrRemoved.
func (b *Broker[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	b.mux.Lock()
	s := b.slotLocked(key)
	s.waiters++
	b.mux.Unlock()

	select {
	case <-s.ready:
	case <-ctx.Done():
	}
	b.mux.Lock()
	defer b.mux.Unlock()
	s.waiters--
	switch {
	case s.removed:
		return zero, fmt.Errorf("%w: %s", ErrRemoved, key)
	case !s.set:
		if s.waiters == 0 && b.slots[key] == s {
			delete(b.slots, key)
		}
		return zero, ctx.Err()
	}
	if b.slots[key] == s {
		delete(b.slots, key)
	}
	return s.value, nil
}

// Remove drops key and its value, if any, releasing blocked consumers.
func (b *Broker[T]) Remove(key string) {
	b.mux.Lock()
	defer b.mux.Unlock()
	s, ok := b.slots[key]
	if !ok {
		return
	}
	delete(b.slots, key)
	if !s.set {
		s.removed = true
		close(s.ready)
	}
}

// Len returns the number of keys with a pending value or waiter.
func (b *Broker[T]) Len() int {
	b.mux.Lock()
	defer b.mux.Unlock()
	return len(b.slots)
}
