package usecases

import (
	"sync"
	"time"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/pkg/geospatial"
)

// SessionState reports whether a fix has been received yet.
type SessionState int

const (
	StateNoFixYet SessionState = iota
	StateHasFix
)

func (s SessionState) String() string {
	if s == StateHasFix {
		return "has_fix"
	}
	return "no_fix_yet"
}

// FixUpdate describes the effect of one accepted fix on the session.
type FixUpdate struct {
	Point              domain.GeodeticPoint
	First              bool
	SameLocation       bool
	DisplacementMeters float64
	UpdatedAt          time.Time
}

// SessionOption customises a LocationSession.
type SessionOption func(*LocationSession)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *LocationSession) { s.now = now }
}

// LocationSession holds the latest fix and the selected projection. It starts
// in StateNoFixYet and moves to StateHasFix on the first valid fix; there is
// no way back.
type LocationSession struct {
	now func() time.Time

	mu         sync.RWMutex
	point      domain.GeodeticPoint
	hasFix     bool
	updatedAt  time.Time
	projection domain.Projection

	watchMu  sync.Mutex
	nextID   int
	watchers map[int]chan struct{}
}

// NewLocationSession creates a session with the given initial projection.
func NewLocationSession(projection domain.Projection, opts ...SessionOption) *LocationSession {
	s := &LocationSession{
		now:        time.Now,
		projection: projection,
		watchers:   make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update validates fix and makes it the current point. Every valid fix
// replaces the stored point and its timestamp; SameLocation in the result
// tells callers whether the visible location changed.
func (s *LocationSession) Update(fix domain.RawFix) (FixUpdate, error) {
	point, err := domain.NewGeodeticPoint(fix)
	if err != nil {
		return FixUpdate{}, err
	}

	now := s.now()

	s.mu.Lock()
	update := FixUpdate{Point: point, First: !s.hasFix, UpdatedAt: now}
	if s.hasFix {
		prev := s.point
		update.SameLocation = prev.SameLocation(point)
		update.DisplacementMeters = geospatial.Haversine(
			prev.Latitude().InexactFloat64(), prev.Longitude().InexactFloat64(),
			point.Latitude().InexactFloat64(), point.Longitude().InexactFloat64(),
		)
	}
	s.point = point
	s.hasFix = true
	s.updatedAt = now
	s.mu.Unlock()

	if !update.SameLocation {
		s.notify()
	}
	return update, nil
}

// Snapshot returns the current point, or false before the first fix.
func (s *LocationSession) Snapshot() (domain.GeodeticPoint, bool) {
	p, _, ok := s.snapshot()
	return p, ok
}

func (s *LocationSession) snapshot() (domain.GeodeticPoint, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.point, s.updatedAt, s.hasFix
}

func (s *LocationSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hasFix {
		return StateHasFix
	}
	return StateNoFixYet
}

// Age is the time since the last accepted fix, truncated to whole seconds.
func (s *LocationSession) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasFix {
		return 0, false
	}
	return s.now().Sub(s.updatedAt).Truncate(time.Second), true
}

// LastUpdated formats the time of the last accepted fix as HH:MM:SS.
func (s *LocationSession) LastUpdated() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasFix {
		return "", false
	}
	return s.updatedAt.Format("15:04:05"), true
}

// SetProjection selects the displayed projection. It reports whether the
// selection changed; watchers are notified only then.
func (s *LocationSession) SetProjection(p domain.Projection) (bool, error) {
	if !p.Valid() {
		return false, domain.ErrUnknownProjection
	}

	s.mu.Lock()
	changed := s.projection != p
	s.projection = p
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return changed, nil
}

func (s *LocationSession) Projection() domain.Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projection
}

// Watch returns a channel that receives a signal whenever the location moves
// or the projection changes. Signals coalesce: a slow reader sees at most one
// pending notification. The returned func unregisters the watcher.
func (s *LocationSession) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

func (s *LocationSession) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
