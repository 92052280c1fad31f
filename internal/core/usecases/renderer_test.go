package usecases_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/usecases"
)

// stubRenderer blocks network projections until their context ends or
// release is closed.
type stubRenderer struct {
	release   chan struct{}
	cancelled chan struct{}
	started   chan struct{}
}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{
		release:   make(chan struct{}),
		cancelled: make(chan struct{}, 8),
		started:   make(chan struct{}, 8),
	}
}

func (s *stubRenderer) Render(ctx context.Context, proj domain.Projection) (*domain.Readout, error) {
	if proj.RequiresNetwork() {
		s.started <- struct{}{}
		select {
		case <-ctx.Done():
			s.cancelled <- struct{}{}
			return nil, ctx.Err()
		case <-s.release:
		}
	}
	return &domain.Readout{Projection: proj}, nil
}

type deliveries struct {
	mu  sync.Mutex
	got []domain.Projection
}

func (d *deliveries) add(r *domain.Readout, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		d.got = append(d.got, r.Projection)
	}
}

func (d *deliveries) list() []domain.Projection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Projection(nil), d.got...)
}

func TestRenderer_LocalIsSynchronous(t *testing.T) {
	r := usecases.NewRenderer(newStubRenderer())
	defer r.Close()

	var d deliveries
	r.Request(context.Background(), domain.ProjectionUTM, d.add)
	assert.Equal(t, []domain.Projection{domain.ProjectionUTM}, d.list())
}

func TestRenderer_SupersededNetworkRenderIsDropped(t *testing.T) {
	stub := newStubRenderer()
	r := usecases.NewRenderer(stub)

	var d deliveries
	r.Request(context.Background(), domain.ProjectionWhat3Words, d.add)
	<-stub.started
	r.Request(context.Background(), domain.ProjectionWGS84DMS, d.add)

	select {
	case <-stub.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded render was not cancelled")
	}

	r.Close()
	assert.Equal(t, []domain.Projection{domain.ProjectionWGS84DMS}, d.list())
}

func TestRenderer_NetworkDelivers(t *testing.T) {
	stub := newStubRenderer()
	r := usecases.NewRenderer(stub)

	done := make(chan struct{})
	var d deliveries
	r.Request(context.Background(), domain.ProjectionWhat3Words, func(ro *domain.Readout, err error) {
		d.add(ro, err)
		close(done)
	})
	<-stub.started
	close(stub.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("network render was not delivered")
	}
	r.Close()
	assert.Equal(t, []domain.Projection{domain.ProjectionWhat3Words}, d.list())
}

func TestRenderer_CloseCancelsAndIgnoresLaterRequests(t *testing.T) {
	stub := newStubRenderer()
	r := usecases.NewRenderer(stub)

	var d deliveries
	r.Request(context.Background(), domain.ProjectionWhat3Words, d.add)
	<-stub.started
	r.Close()

	require.Len(t, stub.cancelled, 1)
	r.Request(context.Background(), domain.ProjectionUTM, d.add)
	assert.Empty(t, d.list())
}

// lateRenderer counts network renders that start after Close has returned.
type lateRenderer struct {
	closed atomic.Bool
	late   atomic.Int32
}

func (s *lateRenderer) Render(ctx context.Context, proj domain.Projection) (*domain.Readout, error) {
	if s.closed.Load() {
		s.late.Add(1)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRenderer_CloseWaitsForConcurrentRequests(t *testing.T) {
	for i := 0; i < 50; i++ {
		stub := &lateRenderer{}
		r := usecases.NewRenderer(stub)

		var wg sync.WaitGroup
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Request(context.Background(), domain.ProjectionWhat3Words, func(*domain.Readout, error) {})
			}()
		}
		r.Close()
		stub.closed.Store(true)
		wg.Wait()

		require.Zero(t, stub.late.Load(), "render started after Close returned")
	}
}
