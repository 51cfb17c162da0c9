// Package clock abstracts wall time and pacing delays so retry, cache and
// scheduling policies can be exercised without real waits.
package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Sleeper blocks for d or until ctx is done, whichever happens first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
