package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

type SnapshotServiceConfig struct {
	LeagueID       int64
	LiveTopN       int
	LiveBatchSize  int
	LiveBatchDelay time.Duration
}

func DefaultSnapshotServiceConfig() SnapshotServiceConfig {
	return SnapshotServiceConfig{
		LiveTopN:       10,
		LiveBatchSize:  3,
		LiveBatchDelay: time.Second,
	}
}

// LiveTeams is the data-path counterpart of a capture batch.
type LiveTeams struct {
	Gameweek        int
	LeagueName      string
	TotalAttempts   int
	SuccessfulCount int
	Teams           []snapshot.TeamSnapshot
	LastUpdated     time.Time
}

type SnapshotService struct {
	source  FantasyDataSource
	players *PlayerCache
	clock   clock.Clock
	sleeper clock.Sleeper
	cfg     SnapshotServiceConfig
	logger  *logging.Logger
}

func NewSnapshotService(
	source FantasyDataSource,
	players *PlayerCache,
	cfg SnapshotServiceConfig,
	clk clock.Clock,
	sleeper clock.Sleeper,
	logger *logging.Logger,
) *SnapshotService {
	defaults := DefaultSnapshotServiceConfig()
	if cfg.LiveTopN <= 0 {
		cfg.LiveTopN = defaults.LiveTopN
	}
	if cfg.LiveBatchSize <= 0 {
		cfg.LiveBatchSize = defaults.LiveBatchSize
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
	return &SnapshotService{
		source:  source,
		players: players,
		clock:   clk,
		sleeper: sleeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// BuildSnapshot assembles one manager's starting XI. A zero gameweekID
// resolves the current gameweek. Any fetch failure aborts the build; there
// is no retry on this path.
func (s *SnapshotService) BuildSnapshot(ctx context.Context, entryID int64, gameweekID int) (_ snapshot.TeamSnapshot, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.BuildSnapshot", attrEntryID.Int64(entryID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	if entryID <= 0 {
		return snapshot.TeamSnapshot{}, fmt.Errorf("%w: entry id must be positive", ErrInvalidInput)
	}
	if gameweekID < 0 {
		return snapshot.TeamSnapshot{}, fmt.Errorf("%w: gameweek must be positive", ErrInvalidInput)
	}
	if gameweekID == 0 {
		gw, err := resolveGameweek(ctx, s.source)
		if err != nil {
			return snapshot.TeamSnapshot{}, err
		}
		gameweekID = gw
	}

	var (
		summary snapshot.EntrySummary
		dir     player.Directory
	)
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		summary, err = s.source.FetchEntry(ctx, entryID)
		if err != nil {
			return fmt.Errorf("fetch entry=%d: %w", entryID, err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		dir, err = s.players.Directory(ctx)
		return err
	})
	span.SetAttributes(attrGameweek.Int(gameweekID))
	if err := p.Wait(); err != nil {
		s.logger.WarnContext(ctx, "build snapshot failed", "entry_id", entryID, "gameweek", gameweekID, "error", err)
		return snapshot.TeamSnapshot{}, err
	}

	picks, err := s.source.FetchPicks(ctx, entryID, gameweekID)
	if err != nil {
		s.logger.WarnContext(ctx, "build snapshot failed", "entry_id", entryID, "gameweek", gameweekID, "error", err)
		return snapshot.TeamSnapshot{}, fmt.Errorf("fetch picks entry=%d gameweek=%d: %w", entryID, gameweekID, err)
	}

	team, err := snapshot.Build(summary, gameweekID, picks, dir)
	if err != nil {
		return snapshot.TeamSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return team, nil
}

// LiveTeams builds snapshots for the league's top managers in small groups.
// Managers whose build fails are left out; rank and points come from the
// standings row.
func (s *SnapshotService) LiveTeams(ctx context.Context, topN int) (_ LiveTeams, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.LiveTeams", attrLeagueID.Int64(s.cfg.LeagueID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	if s.cfg.LeagueID <= 0 {
		return LiveTeams{}, fmt.Errorf("%w: league id is not configured", ErrConfiguration)
	}
	if topN == 0 {
		topN = s.cfg.LiveTopN
	}
	if topN < 0 || topN > MaxCaptureTopN {
		return LiveTeams{}, fmt.Errorf("%w: top must be between 1 and %d", ErrInvalidInput, MaxCaptureTopN)
	}

	gw, err := resolveGameweek(ctx, s.source)
	if err != nil {
		return LiveTeams{}, err
	}
	standings, err := s.source.FetchStandings(ctx, s.cfg.LeagueID)
	if err != nil {
		return LiveTeams{}, fmt.Errorf("fetch standings league=%d: %w", s.cfg.LeagueID, err)
	}

	scheduler := NewScheduler(SchedulerConfig{
		Mode:            capture.ModeBoundedBatch,
		GroupSize:       s.cfg.LiveBatchSize,
		InterGroupDelay: s.cfg.LiveBatchDelay,
	}, s.sleeper, s.logger)

	built, err := RunScheduled(ctx, scheduler, standings.Top(topN), func(ctx context.Context, _ int, m manager.Manager) *snapshot.TeamSnapshot {
		team, err := s.BuildSnapshot(ctx, m.EntryID, gw)
		if err != nil {
			return nil
		}
		team.Rank = m.Rank
		team.TotalPoints = m.TotalPoints
		team.GameweekPoints = m.GameweekPoints
		if team.ManagerName == "" {
			team.ManagerName = m.PlayerName
		}
		if team.TeamName == "" {
			team.TeamName = m.TeamName
		}
		return &team
	}, nil)
	if err != nil {
		return LiveTeams{}, fmt.Errorf("schedule snapshots: %w", err)
	}

	tally := capture.Aggregate(built, func(t *snapshot.TeamSnapshot) bool { return t != nil })
	teams := make([]snapshot.TeamSnapshot, 0, tally.SuccessfulCount)
	for _, t := range tally.Items {
		if t != nil {
			teams = append(teams, *t)
		}
	}

	return LiveTeams{
		Gameweek:        gw,
		LeagueName:      standings.LeagueName,
		TotalAttempts:   tally.TotalAttempts,
		SuccessfulCount: tally.SuccessfulCount,
		Teams:           teams,
		LastUpdated:     s.clock.Now(),
	}, nil
}
