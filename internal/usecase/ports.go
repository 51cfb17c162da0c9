package usecase

import (
	"context"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
)

// FantasyDataSource is the read-only upstream game API. Implementations map
// 401/403 to ErrAuth, 404 to ErrNotFound and other failures to ErrUpstreamFetch.
type FantasyDataSource interface {
	FetchEvents(ctx context.Context) ([]gameweek.Gameweek, error)
	FetchStandings(ctx context.Context, leagueID int64) (manager.Standings, error)
	FetchEntry(ctx context.Context, entryID int64) (snapshot.EntrySummary, error)
	FetchPicks(ctx context.Context, entryID int64, gameweekID int) ([]player.Pick, error)
	FetchPlayers(ctx context.Context) ([]player.Record, error)
	FetchMe(ctx context.Context) (Identity, error)
}

// Identity is what the upstream /me endpoint reports for the credentials in use.
type Identity struct {
	PlayerID  int64
	FirstName string
	LastName  string
	EntryID   int64
}

// BrowserLauncher starts one isolated browser per call.
type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// BrowserSession drives a single page capture. Close must be safe to call
// more than once and must release the browser process.
type BrowserSession interface {
	CaptureTeam(ctx context.Context, target capture.Target) (capture.Image, error)
	Close() error
}

// ImageStore reads back persisted captures.
type ImageStore interface {
	Open(filename string) ([]byte, error)
	Dir() string
}
