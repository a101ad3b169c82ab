package cmd

import (
	"context"
	"sync"

	"github.com/viant/taskmail/progress"
	"github.com/viant/taskmail/service/processor"
)

// pipeline is an input gate whose records are consumed by the default
// action one per quantum.
type pipeline struct {
	mux        sync.Mutex
	buffer     []int
	closed     bool
	suspension processor.Suspension

	// owned by the subtask goroutine
	processed int
	sum       int64
	barriers  int
}

func (p *pipeline) defaultAction(ctx context.Context, controller processor.Controller) error {
	p.mux.Lock()
	if len(p.buffer) == 0 {
		if p.closed {
			controller.AllActionsCompleted()
		} else {
			p.suspension = controller.SuspendDefaultAction()
		}
		p.mux.Unlock()
		return nil
	}
	record := p.buffer[0]
	p.buffer = p.buffer[1:]
	p.mux.Unlock()

	p.processed++
	p.sum += int64(record)
	progress.UpdateCtx(ctx, progress.Delta{Records: 1})
	return nil
}

func (p *pipeline) feed(record int) {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.buffer = append(p.buffer, record)
	p.resumeLocked()
}

func (p *pipeline) close() {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.closed = true
	p.resumeLocked()
}

func (p *pipeline) resumeLocked() {
	if p.suspension != nil {
		p.suspension.Resume()
		p.suspension = nil
	}
}

// checkpoint runs on the subtask goroutine between records.
func (p *pipeline) checkpoint() error {
	p.barriers++
	return nil
}
