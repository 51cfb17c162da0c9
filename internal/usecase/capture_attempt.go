package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

const (
	DefaultCaptureMaxRetries   = 2
	DefaultCaptureRetryBackoff = 2 * time.Second
)

type AttemptRunnerConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// AttemptRunner drives one capture.Attempt to a terminal state. Every try
// launches a fresh browser that is closed before the next try starts.
type AttemptRunner struct {
	launcher BrowserLauncher
	clock    clock.Clock
	sleeper  clock.Sleeper
	cfg      AttemptRunnerConfig
	logger   *logging.Logger
}

func NewAttemptRunner(
	launcher BrowserLauncher,
	cfg AttemptRunnerConfig,
	clk clock.Clock,
	sleeper clock.Sleeper,
	logger *logging.Logger,
) *AttemptRunner {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	if clk == nil {
		clk = clock.System{}
	}
	if sleeper == nil {
		sleeper = clock.System{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AttemptRunner{
		launcher: launcher,
		clock:    clk,
		sleeper:  sleeper,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run never returns an error: failures end in capture.StateFailed with the
// last try's message. Backoff before try n+1 is RetryBackoff*n.
func (r *AttemptRunner) Run(ctx context.Context, target capture.Target) *capture.Attempt {
	attempt := capture.NewAttempt(target, r.cfg.MaxRetries)
	ctx, span := startUsecaseSpan(ctx, "usecase.AttemptRunner.Run", targetAttributes(target)...)
	defer func() {
		finishAttemptSpan(span, attempt)
		span.End()
	}()

	if err := target.Validate(); err != nil {
		attempt.Abort(r.clock.Now(), fmt.Sprintf("%v: %v", ErrInvalidInput, err))
		return attempt
	}

	for {
		if err := attempt.Begin(r.clock.Now()); err != nil {
			attempt.Abort(r.clock.Now(), err.Error())
			return attempt
		}

		img, err := r.try(ctx, target)
		if err == nil {
			encoded := base64.StdEncoding.EncodeToString(img.PNG)
			if err := attempt.Succeed(r.clock.Now(), img, encoded); err != nil {
				attempt.Abort(r.clock.Now(), err.Error())
			}
			r.logger.InfoContext(ctx, "team captured",
				"entry_id", target.EntryID,
				"gameweek", target.Gameweek,
				"attempt", attempt.Number(),
				"filename", img.Filename,
				"degraded", img.Degraded,
			)
			return attempt
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			attempt.Abort(r.clock.Now(), err.Error())
			return attempt
		}

		retry, failErr := attempt.Fail(r.clock.Now(), err.Error())
		if failErr != nil {
			attempt.Abort(r.clock.Now(), failErr.Error())
			return attempt
		}
		r.logger.WarnContext(ctx, "capture attempt failed",
			"entry_id", target.EntryID,
			"gameweek", target.Gameweek,
			"attempt", attempt.Number(),
			"max_attempts", attempt.MaxAttempts,
			"retry", retry,
			"error", err,
		)
		if !retry {
			return attempt
		}

		delay := r.cfg.RetryBackoff * time.Duration(attempt.Number())
		if err := r.sleeper.Sleep(ctx, delay); err != nil {
			attempt.Abort(r.clock.Now(), err.Error())
			return attempt
		}
	}
}

func (r *AttemptRunner) try(ctx context.Context, target capture.Target) (img capture.Image, err error) {
	session, err := r.launcher.Launch(ctx)
	if err != nil {
		if errors.Is(err, ErrBrowserLaunch) {
			return capture.Image{}, err
		}
		return capture.Image{}, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			r.logger.WarnContext(ctx, "close browser session failed", "entry_id", target.EntryID, "error", closeErr)
		}
	}()

	return session.CaptureTeam(ctx, target)
}
