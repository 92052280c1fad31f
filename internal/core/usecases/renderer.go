package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/coords/internal/core/domain"
)

// ReadoutRenderer renders the current location in a projection.
type ReadoutRenderer interface {
	Render(ctx context.Context, proj domain.Projection) (*domain.Readout, error)
}

// Renderer serialises readout requests for one view so that only the result
// of the latest request is delivered. Local projections render inline;
// network projections render on a goroutine whose context is cancelled as
// soon as a newer request arrives.
type Renderer struct {
	readouts ReadoutRenderer

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	closed bool

	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

// NewRenderer creates a Renderer on top of readouts.
func NewRenderer(readouts ReadoutRenderer) *Renderer {
	return &Renderer{readouts: readouts}
}

// Request renders proj and passes the result to deliver, unless a newer
// request or Close supersedes it first. Cancelled renders are never
// delivered. deliver must not call Request.
func (r *Renderer) Request(ctx context.Context, proj domain.Projection, deliver func(*domain.Readout, error)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.seq++
	seq := r.seq
	if r.cancel != nil {
		r.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	network := proj.RequiresNetwork()
	if network {
		// Counted under mu so a concurrent Close waits for it.
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if !network {
		readout, err := r.readouts.Render(rctx, proj)
		r.deliver(seq, readout, err, deliver)
		return
	}

	go func() {
		defer r.wg.Done()
		readout, err := r.readouts.Render(rctx, proj)
		r.deliver(seq, readout, err, deliver)
	}()
}

func (r *Renderer) deliver(seq uint64, readout *domain.Readout, err error, deliver func(*domain.Readout, error)) {
	if errors.Is(err, context.Canceled) {
		return
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	stale := r.closed || seq != r.seq
	r.mu.Unlock()
	if stale {
		return
	}
	deliver(readout, err)
}

// Close cancels any pending render and waits for in-flight renders to finish.
// Requests after Close are ignored.
func (r *Renderer) Close() {
	r.mu.Lock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}
