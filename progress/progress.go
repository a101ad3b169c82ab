package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/taskmail/service/event"
)

// Delta represents an incremental counter change. Fields are signed.
type Delta struct {
	Submitted int
	Rejected  int
	Executed  int
	Failed    int
	Discarded int
	Pending   int
	Records   int
}

// DeltaOf maps a lifecycle event onto counter changes.
func DeltaOf(e *event.Event) Delta {
	if e == nil {
		return Delta{}
	}
	switch e.Type {
	case event.TypeSubmitted:
		return Delta{Submitted: 1, Pending: 1}
	case event.TypeRejected:
		return Delta{Rejected: 1}
	case event.TypeExecuted:
		return Delta{Executed: 1, Pending: -1}
	case event.TypeFailed:
		return Delta{Failed: 1, Pending: -1}
	case event.TypeDiscarded:
		return Delta{Discarded: 1, Pending: -1}
	}
	return Delta{}
}

// Progress keeps aggregated mail counters. It is safe for concurrent use.
type Progress struct {
	Subtask   string
	StartedAt time.Time

	SubmittedMails int
	RejectedMails  int
	ExecutedMails  int
	FailedMails    int
	DiscardedMails int
	PendingMails   int

	// ProcessedRecords is reported by the default action through UpdateCtx.
	ProcessedRecords int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker for the named subtask.
func New(subtask string, onChange func(Progress)) *Progress {
	return &Progress{Subtask: subtask, StartedAt: time.Now(), onChange: onChange}
}

// Update applies d. The onChange callback, if any, receives a copy of the
// updated tracker outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()
	p.SubmittedMails += d.Submitted
	p.RejectedMails += d.Rejected
	p.ExecutedMails += d.Executed
	p.FailedMails += d.Failed
	p.DiscardedMails += d.Discarded
	p.PendingMails += d.Pending
	p.ProcessedRecords += d.Records
	snapshot := p.copyLocked()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Handle applies the delta of e; it is meant to be subscribed to an
// event.Service.
func (p *Progress) Handle(e *event.Event) {
	p.Update(DeltaOf(e))
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copyLocked()
}

func (p *Progress) copyLocked() Progress {
	return Progress{
		Subtask:        p.Subtask,
		StartedAt:      p.StartedAt,
		SubmittedMails: p.SubmittedMails,
		RejectedMails:  p.RejectedMails,
		ExecutedMails:  p.ExecutedMails,
		FailedMails:    p.FailedMails,
		DiscardedMails: p.DiscardedMails,
		PendingMails:   p.PendingMails,

		ProcessedRecords: p.ProcessedRecords,
	}
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tr in a derived context.
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
