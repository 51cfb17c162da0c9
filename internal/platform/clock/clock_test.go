package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSystemSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Now()
	err := System{}.Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(started) > time.Second {
		t.Fatal("sleep did not return promptly after cancel")
	}
}

func TestFake_SleepAdvancesTime(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	if err := f.Sleep(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	f.Advance(time.Second)

	if got := f.Now().Sub(start); got != 4*time.Second {
		t.Fatalf("expected 4s elapsed, got %s", got)
	}
	if sleeps := f.Sleeps(); len(sleeps) != 1 || sleeps[0] != 3*time.Second {
		t.Fatalf("unexpected recorded sleeps: %v", sleeps)
	}
}
