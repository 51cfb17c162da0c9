package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
)

// ScraperStatus reports whether the service is able to run a batch.
type ScraperStatus struct {
	Cache                CacheStatus
	AuthMethod           auth.Method
	LeagueID             int64
	LeagueConfigured     bool
	ReadyToScrape        bool
	ScreenshotsSupported bool
	ScreenshotsDir       string
}

type AuthCheck struct {
	Method   auth.Method
	Identity Identity
}

type EventList struct {
	Current int
	Events  []gameweek.Gameweek
}

type LeagueService struct {
	source      FantasyDataSource
	players     *PlayerCache
	credentials auth.Credentials
	leagueID    int64
	screenshots ImageStore
	browsers    BrowserLauncher
}

func NewLeagueService(
	source FantasyDataSource,
	players *PlayerCache,
	credentials auth.Credentials,
	leagueID int64,
	browsers BrowserLauncher,
	screenshots ImageStore,
) *LeagueService {
	return &LeagueService{
		source:      source,
		players:     players,
		credentials: credentials,
		leagueID:    leagueID,
		browsers:    browsers,
		screenshots: screenshots,
	}
}

func (s *LeagueService) Events(ctx context.Context) (EventList, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Events")
	defer span.End()

	events, err := s.source.FetchEvents(ctx)
	if err != nil {
		return EventList{}, fmt.Errorf("fetch events: %w", err)
	}
	return EventList{Current: gameweek.Resolve(events), Events: events}, nil
}

func (s *LeagueService) Standings(ctx context.Context) (manager.Standings, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Standings")
	defer span.End()

	if s.leagueID <= 0 {
		return manager.Standings{}, fmt.Errorf("%w: league id is not configured", ErrConfiguration)
	}
	standings, err := s.source.FetchStandings(ctx, s.leagueID)
	if err != nil {
		return manager.Standings{}, fmt.Errorf("fetch standings league=%d: %w", s.leagueID, err)
	}
	return standings, nil
}

// CheckAuth calls the upstream identity endpoint with the configured
// credentials.
func (s *LeagueService) CheckAuth(ctx context.Context) (AuthCheck, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CheckAuth")
	defer span.End()

	method := s.credentials.Method()
	if method == auth.MethodNone {
		return AuthCheck{Method: method}, fmt.Errorf("%w: no bearer token or cookies configured", ErrAuth)
	}
	me, err := s.source.FetchMe(ctx)
	if err != nil {
		return AuthCheck{Method: method}, fmt.Errorf("fetch identity: %w", err)
	}
	return AuthCheck{Method: method, Identity: me}, nil
}

func (s *LeagueService) CacheStatus() CacheStatus {
	return s.players.Status()
}

func (s *LeagueService) Status() ScraperStatus {
	out := ScraperStatus{
		Cache:                s.players.Status(),
		AuthMethod:           s.credentials.Method(),
		LeagueID:             s.leagueID,
		LeagueConfigured:     s.leagueID > 0,
		ScreenshotsSupported: s.browsers != nil,
	}
	if s.screenshots != nil {
		out.ScreenshotsDir = s.screenshots.Dir()
	}
	out.ReadyToScrape = out.LeagueConfigured && s.credentials.Configured()
	return out
}
