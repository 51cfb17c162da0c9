package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

type SchedulerConfig struct {
	Mode capture.Mode
	// GroupSize bounds concurrency in bounded-batch mode.
	GroupSize       int
	InterUnitDelay  time.Duration
	InterGroupDelay time.Duration
}

// Scheduler paces work over an ordered list. Sequential mode pauses between
// items; bounded-batch mode runs fixed-size groups concurrently and pauses
// between groups. No pause follows the last item or group.
type Scheduler struct {
	cfg     SchedulerConfig
	sleeper clock.Sleeper
	logger  *logging.Logger
}

func NewScheduler(cfg SchedulerConfig, sleeper clock.Sleeper, logger *logging.Logger) *Scheduler {
	if cfg.Mode == "" {
		cfg.Mode = capture.ModeSequential
	}
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 1
	}
	if sleeper == nil {
		sleeper = clock.System{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{cfg: cfg, sleeper: sleeper, logger: logger}
}

func (s *Scheduler) Config() SchedulerConfig {
	return s.cfg
}

// ErrWorkPanicked marks the error handed to a scheduled item's failure
// builder when its work panicked.
var ErrWorkPanicked = errors.New("scheduled work panicked")

// RunScheduled applies work to every item and returns results by input
// index. work must record its own failures in R; only cancellation or a
// pool failure stops the run early. When work panics for an item, failed
// builds that item's result from the item and the panic error; a nil
// failed leaves the zero R.
func RunScheduled[T, R any](ctx context.Context, s *Scheduler, items []T, work func(context.Context, int, T) R, failed func(T, error) R) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	run := func(ctx context.Context, idx int, item T) (out R) {
		defer func() {
			if p := recover(); p != nil {
				err := fmt.Errorf("%w: item %d: %v", ErrWorkPanicked, idx, p)
				s.logger.ErrorContext(ctx, "scheduled work panicked", "item", idx, "panic", p)
				if failed != nil {
					out = failed(item, err)
					return
				}
				var zero R
				out = zero
			}
		}()
		return work(ctx, idx, item)
	}

	switch s.cfg.Mode {
	case capture.ModeSequential:
		return results, runSequential(ctx, s, items, results, run)
	case capture.ModeBoundedBatch:
		return results, runBounded(ctx, s, items, results, run)
	default:
		return results, fmt.Errorf("%w: unsupported schedule mode %q", ErrInvalidInput, s.cfg.Mode)
	}
}

func runSequential[T, R any](ctx context.Context, s *Scheduler, items []T, results []R, work func(context.Context, int, T) R) error {
	for i, item := range items {
		if i > 0 {
			if err := s.sleeper.Sleep(ctx, s.cfg.InterUnitDelay); err != nil {
				return fmt.Errorf("pause before item %d: %w", i, err)
			}
		}
		results[i] = work(ctx, i, item)
	}
	return nil
}

func runBounded[T, R any](ctx context.Context, s *Scheduler, items []T, results []R, work func(context.Context, int, T) R) error {
	size := s.cfg.GroupSize
	if size > len(items) {
		size = len(items)
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p any) {
		s.logger.ErrorContext(ctx, "scheduled work panicked", "panic", p)
	}))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	groups := (len(items) + s.cfg.GroupSize - 1) / s.cfg.GroupSize
	for g := 0; g < groups; g++ {
		if g > 0 {
			if err := s.sleeper.Sleep(ctx, s.cfg.InterGroupDelay); err != nil {
				return fmt.Errorf("pause before group %d: %w", g, err)
			}
		}

		start := g * s.cfg.GroupSize
		end := min(start+s.cfg.GroupSize, len(items))
		s.logger.DebugContext(ctx, "running scheduled group", "group", g+1, "groups", groups, "items", end-start)

		var workers sync.WaitGroup
		for i := start; i < end; i++ {
			idx, item := i, items[i]
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()
				results[idx] = work(ctx, idx, item)
			}); err != nil {
				workers.Done()
				workers.Wait()
				return fmt.Errorf("submit item %d to worker pool: %w", idx, err)
			}
		}
		workers.Wait()
	}
	return nil
}
