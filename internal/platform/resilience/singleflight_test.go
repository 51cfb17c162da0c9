package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight[string]
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	var shared atomic.Int32
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, dup := g.Do("bootstrap", func() (string, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil || v != "ok" {
				t.Errorf("singleflight call failed: v=%q err=%v", v, err)
			}
			if dup {
				shared.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
	if got := shared.Load(); got != workers-1 {
		t.Fatalf("expected %d shared results, got %d", workers-1, got)
	}
}

func TestSingleFlight_ReleasesKeyAfterError(t *testing.T) {
	var g SingleFlight[int]
	boom := errors.New("boom")

	if _, err, _ := g.Do("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if g.InFlight("k") {
		t.Fatal("key still marked in flight after completion")
	}

	v, err, _ := g.Do("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("expected fresh call to run, got v=%d err=%v", v, err)
	}
}

func TestSingleFlight_PanicReachesEveryCaller(t *testing.T) {
	var g SingleFlight[*int]
	started := make(chan struct{})
	release := make(chan struct{})

	leaderErr := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				leaderErr <- errors.New("panic escaped the leader")
			}
		}()
		_, err, _ := g.Do("dir", func() (*int, error) {
			close(started)
			<-release
			panic("decode failed")
		})
		leaderErr <- err
	}()

	<-started
	waiterDone := make(chan struct{})
	var waiterVal *int
	var waiterErr error
	go func() {
		defer close(waiterDone)
		waiterVal, waiterErr, _ = g.Do("dir", func() (*int, error) {
			t.Error("waiter must not run its own call")
			return nil, nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)
	<-waiterDone

	if err := <-leaderErr; !errors.Is(err, ErrCallPanicked) {
		t.Fatalf("leader: expected ErrCallPanicked, got %v", err)
	}
	if waiterVal != nil || !errors.Is(waiterErr, ErrCallPanicked) {
		t.Fatalf("waiter: expected nil value with ErrCallPanicked, got %v / %v", waiterVal, waiterErr)
	}
	if g.InFlight("dir") {
		t.Fatal("key still marked in flight after panic")
	}
}

func TestSingleFlight_DoContext_CancelledCallerDoesNotAbortCall(t *testing.T) {
	var g SingleFlight[string]
	release := make(chan struct{})
	var runs atomic.Int32

	fn := func() (string, error) {
		runs.Add(1)
		<-release
		return "players", nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err, _ := g.DoContext(leaderCtx, "refresh", fn)
		leaderDone <- err
	}()

	time.Sleep(10 * time.Millisecond)
	waiterDone := make(chan struct{})
	var got string
	var waiterErr error
	go func() {
		defer close(waiterDone)
		got, waiterErr, _ = g.DoContext(context.Background(), "refresh", fn)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-leaderDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader: expected context.Canceled, got %v", err)
	}

	close(release)
	<-waiterDone
	if waiterErr != nil || got != "players" {
		t.Fatalf("waiter: expected shared result, got %q / %v", got, waiterErr)
	}
	if n := runs.Load(); n != 1 {
		t.Fatalf("expected one run, got %d", n)
	}
}
