package cache

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/resilience"
)

const (
	refreshKey = "snapshot"

	// DefaultRefreshTimeout bounds a refresh that no caller can cancel.
	DefaultRefreshTimeout = 30 * time.Second
)

// Snapshot holds one value that is replaced wholesale when it is older than
// its TTL. Concurrent readers that find it stale share a single refresh and
// all observe its outcome; a failed refresh keeps the previous value.
// The refresh runs detached from the caller that started it, so one
// caller giving up never fails the others waiting on the same refresh.
type Snapshot[T any] struct {
	ttl            time.Duration
	refreshTimeout time.Duration
	clock          clock.Clock

	mu          sync.RWMutex
	value       T
	loaded      bool
	refreshedAt time.Time

	flight resilience.SingleFlight[T]
}

type Status struct {
	Populated   bool
	Valid       bool
	RefreshedAt time.Time
	Age         time.Duration
}

func NewSnapshot[T any](ttl time.Duration, clk clock.Clock) *Snapshot[T] {
	if clk == nil {
		clk = clock.System{}
	}
	return &Snapshot[T]{ttl: ttl, refreshTimeout: DefaultRefreshTimeout, clock: clk}
}

// WithRefreshTimeout overrides the deadline applied to each detached refresh.
func (s *Snapshot[T]) WithRefreshTimeout(d time.Duration) *Snapshot[T] {
	if d > 0 {
		s.refreshTimeout = d
	}
	return s
}

func (s *Snapshot[T]) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached value, running loader first when the value is
// missing or expired.
func (s *Snapshot[T]) Get(ctx context.Context, loader func(context.Context) (T, error)) (T, error) {
	if loader == nil {
		var zero T
		return zero, crerr.New("loader is required")
	}
	if value, ok := s.fresh(); ok {
		return value, nil
	}

	value, err, _ := s.flight.DoContext(ctx, refreshKey, func() (T, error) {
		if cached, ok := s.fresh(); ok {
			return cached, nil
		}

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		loaded, err := loader(refreshCtx)
		if err != nil {
			var zero T
			return zero, err
		}

		s.mu.Lock()
		s.value = loaded
		s.loaded = true
		s.refreshedAt = s.clock.Now()
		s.mu.Unlock()
		return loaded, nil
	})
	return value, err
}

// Peek returns the current value without refreshing it.
func (s *Snapshot[T]) Peek() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loaded
}

func (s *Snapshot[T]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return Status{}
	}
	age := s.clock.Now().Sub(s.refreshedAt)
	return Status{
		Populated:   true,
		Valid:       age < s.ttl,
		RefreshedAt: s.refreshedAt,
		Age:         age,
	}
}

func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	var zero T
	s.value = zero
	s.loaded = false
	s.refreshedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Snapshot[T]) fresh() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded || s.clock.Now().Sub(s.refreshedAt) >= s.ttl {
		var zero T
		return zero, false
	}
	return s.value, true
}
