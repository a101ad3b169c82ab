package event

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/viant/taskmail/service/messaging"
)

// Listener consumes events on its own goroutine and hands them to handler.
// An event whose handler panics is nacked, so the queue redelivers it and
// finally dead-letters it.
type Listener struct {
	publisher *Publisher
	handler   func(*Event)
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewListener creates a stopped listener.
func NewListener(publisher *Publisher, handler func(*Event)) *Listener {
	return &Listener{publisher: publisher, handler: handler}
}

// Start launches the consuming goroutine.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, messaging.ErrQueueClosed) {
					return
				}
				log.Printf("event listener: failed to consume event: %v", err)
				continue
			}
			if msg == nil {
				continue
			}
			if err = l.handle(msg.T()); err != nil {
				log.Printf("event listener: %v", err)
				if nackErr := msg.Nack(err); nackErr != nil {
					log.Printf("event listener: failed to nack event: %v", nackErr)
				}
				continue
			}
			if err = msg.Ack(); err != nil {
				log.Printf("event listener: failed to ack event: %v", err)
			}
		}
	}()
}

func (l *Listener) handle(e *Event) (err error) {
	if e == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked on %v event: %v", e.Type, r)
		}
	}()
	l.handler(e)
	return nil
}

// Stop cancels the consuming goroutine and waits for it to exit.
func (l *Listener) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

// Wait blocks until the consuming goroutine exits (e.g. after queue close).
func (l *Listener) Wait() {
	if l.done != nil {
		<-l.done
	}
}
