package browser

import (
	"context"
	"time"
)

// waitFunc blocks until selector is present or ctx ends.
type waitFunc func(ctx context.Context, selector string) error

// probeSelectors tries selectors in order, each with its own timeout, and
// stops at the first match. ok is false when none matched.
func probeSelectors(ctx context.Context, selectors []string, timeout time.Duration, wait waitFunc) (matched string, ok bool) {
	for _, sel := range selectors {
		if ctx.Err() != nil {
			return "", false
		}
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		err := wait(stepCtx, sel)
		cancel()
		if err == nil {
			return sel, true
		}
	}
	return "", false
}
