package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/id"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

var ErrCaptureFailed = errors.New("capture failed")

const MaxCaptureTopN = 50

type CaptureServiceConfig struct {
	LeagueID        int64
	DefaultTopN     int
	DefaultMode     capture.Mode
	SequentialDelay time.Duration
	BatchSize       int
	BatchDelay      time.Duration
}

func DefaultCaptureServiceConfig() CaptureServiceConfig {
	return CaptureServiceConfig{
		DefaultTopN:     8,
		DefaultMode:     capture.ModeSequential,
		SequentialDelay: 3 * time.Second,
		BatchSize:       2,
		BatchDelay:      5 * time.Second,
	}
}

type CaptureAllInput struct {
	TopN int
	Mode capture.Mode
}

// SingleCapture is the outcome of capturing one entry outside a batch.
type SingleCapture struct {
	Entry    snapshot.EntrySummary
	Gameweek int
	Result   capture.Result
	Trace    []capture.AttemptRecord
}

type CaptureService struct {
	source  FantasyDataSource
	runner  *AttemptRunner
	clock   clock.Clock
	sleeper clock.Sleeper
	cfg     CaptureServiceConfig
	logger  *logging.Logger
	ids     id.Generator
}

func NewCaptureService(
	source FantasyDataSource,
	runner *AttemptRunner,
	cfg CaptureServiceConfig,
	clk clock.Clock,
	sleeper clock.Sleeper,
	logger *logging.Logger,
) *CaptureService {
	defaults := DefaultCaptureServiceConfig()
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = defaults.DefaultTopN
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = defaults.DefaultMode
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
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
	return &CaptureService{
		source:  source,
		runner:  runner,
		clock:   clk,
		sleeper: sleeper,
		cfg:     cfg,
		logger:  logger,
		ids:     id.NewUUIDGenerator(),
	}
}

// CaptureAll screenshots the league's top managers for the current gameweek.
// The gameweek is resolved once and shared by every capture in the run.
func (s *CaptureService) CaptureAll(ctx context.Context, input CaptureAllInput) (_ capture.BatchReport, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CaptureService.CaptureAll", attrLeagueID.Int64(s.cfg.LeagueID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	if s.cfg.LeagueID <= 0 {
		return capture.BatchReport{}, fmt.Errorf("%w: league id is not configured", ErrConfiguration)
	}

	topN := input.TopN
	if topN == 0 {
		topN = s.cfg.DefaultTopN
	}
	if topN < 0 || topN > MaxCaptureTopN {
		return capture.BatchReport{}, fmt.Errorf("%w: top must be between 1 and %d", ErrInvalidInput, MaxCaptureTopN)
	}

	mode := input.Mode
	if mode == "" {
		mode = s.cfg.DefaultMode
	}
	if mode != capture.ModeSequential && mode != capture.ModeBoundedBatch {
		return capture.BatchReport{}, fmt.Errorf("%w: unsupported capture mode %q", ErrInvalidInput, mode)
	}

	span.SetAttributes(attrMode.String(string(mode)))

	startedAt := s.clock.Now()
	runID := s.ids.NewID()
	logger := s.logger.With("run_id", runID, "mode", string(mode))

	gw, err := s.currentGameweek(ctx)
	if err != nil {
		return capture.BatchReport{}, err
	}
	span.SetAttributes(attrGameweek.Int(gw))

	standings, err := s.source.FetchStandings(ctx, s.cfg.LeagueID)
	if err != nil {
		return capture.BatchReport{}, fmt.Errorf("fetch standings league=%d: %w", s.cfg.LeagueID, err)
	}
	managers := standings.Top(topN)
	logger.InfoContext(ctx, "capture batch started", "gameweek", gw, "managers", len(managers), "league", standings.LeagueName)

	scheduler := NewScheduler(SchedulerConfig{
		Mode:            mode,
		GroupSize:       s.cfg.BatchSize,
		InterUnitDelay:  s.cfg.SequentialDelay,
		InterGroupDelay: s.cfg.BatchDelay,
	}, s.sleeper, logger)

	captures, err := RunScheduled(ctx, scheduler, managers, func(ctx context.Context, _ int, m manager.Manager) capture.ManagerCapture {
		attempt := s.runner.Run(ctx, capture.Target{EntryID: m.EntryID, Gameweek: gw})
		return capture.ManagerCapture{Manager: m, Result: attempt.Result()}
	}, func(m manager.Manager, err error) capture.ManagerCapture {
		return capture.ManagerCapture{Manager: m, Result: capture.Result{ErrorMessage: err.Error()}}
	})
	if err != nil {
		return capture.BatchReport{}, fmt.Errorf("schedule captures: %w", err)
	}

	report := capture.NewBatchReport(runID, mode, gw, standings.LeagueName, captures, startedAt, s.clock.Now())
	logger.InfoContext(ctx, "capture batch finished",
		"gameweek", gw,
		"total_attempts", report.TotalAttempts,
		"successful_captures", report.SuccessfulCaptures,
		"duration", report.LastUpdated.Sub(startedAt),
	)
	return report, nil
}

// CaptureSingle screenshots one entry. An unknown entry yields ErrNotFound;
// an exhausted capture yields ErrCaptureFailed alongside the failed result.
func (s *CaptureService) CaptureSingle(ctx context.Context, entryID int64) (_ SingleCapture, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CaptureService.CaptureSingle", attrEntryID.Int64(entryID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	if entryID <= 0 {
		return SingleCapture{}, fmt.Errorf("%w: entry id must be positive", ErrInvalidInput)
	}

	gw, err := s.currentGameweek(ctx)
	if err != nil {
		return SingleCapture{}, err
	}

	entry, err := s.source.FetchEntry(ctx, entryID)
	if err != nil {
		return SingleCapture{}, fmt.Errorf("fetch entry=%d: %w", entryID, err)
	}

	attempt := s.runner.Run(ctx, capture.Target{EntryID: entryID, Gameweek: gw})
	out := SingleCapture{
		Entry:    entry,
		Gameweek: gw,
		Result:   attempt.Result(),
		Trace:    attempt.Trace(),
	}
	if !out.Result.Success {
		return out, fmt.Errorf("%w: entry=%d: %s", ErrCaptureFailed, entryID, out.Result.ErrorMessage)
	}
	return out, nil
}

func (s *CaptureService) currentGameweek(ctx context.Context) (int, error) {
	return resolveGameweek(ctx, s.source)
}

func resolveGameweek(ctx context.Context, source FantasyDataSource) (int, error) {
	events, err := source.FetchEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch events: %w", err)
	}
	return gameweek.Resolve(events), nil
}
