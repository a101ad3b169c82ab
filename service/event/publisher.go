package event

import (
	"context"

	"github.com/viant/taskmail/service/messaging"
)

// Publisher writes events to a queue.
type Publisher struct {
	queue messaging.Queue[Event]
}

// NewPublisher creates a publisher over queue.
func NewPublisher(queue messaging.Queue[Event]) *Publisher {
	return &Publisher{queue: queue}
}

// Publish enqueues a copy of e.
func (p *Publisher) Publish(ctx context.Context, e *Event) error {
	return p.queue.Publish(ctx, e)
}

// Consume returns the next event message; the caller acknowledges it.
func (p *Publisher) Consume(ctx context.Context) (messaging.Message[Event], error) {
	return p.queue.Consume(ctx)
}
