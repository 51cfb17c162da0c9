package resilience

import (
	"context"
	"sync"

	crerr "github.com/cockroachdb/errors"
)

// ErrCallPanicked marks the error shared with every caller when the
// in-flight function panics.
var ErrCallPanicked = crerr.New("single-flight call panicked")

// SingleFlight deduplicates concurrent calls for the same key: late callers
// wait for the in-flight call and share its result.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Do runs fn on the caller's goroutine unless a call for key is already in
// flight, in which case it waits for that call.
func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	c, leader := g.join(key)
	if !leader {
		<-c.done
		return c.val, c.err, true
	}
	g.run(key, c, fn)
	return c.val, c.err, false
}

// DoContext runs fn detached from every caller, so no caller's cancellation
// can abort the shared call. Each caller stops waiting when its own ctx is
// done; the call keeps running for the others.
func (g *SingleFlight[T]) DoContext(ctx context.Context, key string, fn func() (T, error)) (T, error, bool) {
	c, leader := g.join(key)
	if leader {
		go g.run(key, c, fn)
	}

	select {
	case <-c.done:
		return c.val, c.err, !leader
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err(), !leader
	}
}

func (g *SingleFlight[T]) join(key string) (*call[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	if c, ok := g.calls[key]; ok {
		return c, false
	}
	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *SingleFlight[T]) run(key string, c *call[T], fn func() (T, error)) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			c.val = zero
			c.err = crerr.Mark(crerr.Newf("call %q panicked: %v", key, p), ErrCallPanicked)
		}
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
}

// InFlight reports whether a call for key is currently running.
func (g *SingleFlight[T]) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
