package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
)

func squadPicks() []player.Pick {
	picks := make([]player.Pick, 0, 15)
	for i := 1; i <= 15; i++ {
		picks = append(picks, player.Pick{PlayerID: 1 + i%2, Slot: i, Multiplier: 1})
	}
	picks[0].IsCaptain = true
	return picks
}

func newTestSnapshotService(source FantasyDataSource, cfg SnapshotServiceConfig) (*SnapshotService, *clock.Fake) {
	clk := clock.NewFake(testStart)
	players := NewPlayerCache(source, time.Minute, clk, nil)
	return NewSnapshotService(source, players, cfg, clk, clk, nil), clk
}

func TestSnapshotService_BuildSnapshot(t *testing.T) {
	t.Parallel()

	source := &mockDataSource{}
	source.On("FetchEvents", mock.Anything).Return([]gameweek.Gameweek{{ID: 6, IsCurrent: true}}, nil)
	source.On("FetchEntry", mock.Anything, int64(42)).Return(snapshot.EntrySummary{EntryID: 42, ManagerName: "Ana", TeamValue: 101.2, Bank: 0.4}, nil)
	source.On("FetchPlayers", mock.Anything).Return(samplePlayers(), nil)
	source.On("FetchPicks", mock.Anything, int64(42), 6).Return(squadPicks(), nil)

	svc, _ := newTestSnapshotService(source, SnapshotServiceConfig{})

	got, err := svc.BuildSnapshot(context.Background(), 42, 0)
	require.NoError(t, err)

	assert.Equal(t, 6, got.Gameweek)
	assert.Equal(t, "Ana", got.ManagerName)
	assert.Equal(t, 101.2, got.TeamValue)
	require.Len(t, got.Players, player.StartingLineupSize)
	assert.True(t, got.Players[0].IsCaptain)
	assert.True(t, got.Players[0].Found)
}

func TestSnapshotService_BuildSnapshot_FetchFailureAborts(t *testing.T) {
	t.Parallel()

	source := &mockDataSource{}
	source.On("FetchEntry", mock.Anything, int64(42)).Return(snapshot.EntrySummary{}, ErrNotFound)
	source.On("FetchPlayers", mock.Anything).Return(samplePlayers(), nil).Maybe()

	svc, _ := newTestSnapshotService(source, SnapshotServiceConfig{})

	_, err := svc.BuildSnapshot(context.Background(), 42, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	source.AssertNotCalled(t, "FetchPicks", mock.Anything, mock.Anything, mock.Anything)
}

// slowPlayersSource serves the bootstrap feed after a delay and gives up
// when its context is cancelled, like the HTTP client does.
type slowPlayersSource struct {
	*mockDataSource
	delay time.Duration
	calls atomic.Int32
}

func (s *slowPlayersSource) FetchPlayers(ctx context.Context) ([]player.Record, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.delay):
		return samplePlayers(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSnapshotService_BuildSnapshot_FailedBuildDoesNotAbortSharedRefresh(t *testing.T) {
	t.Parallel()

	mocked := &mockDataSource{}
	mocked.On("FetchEntry", mock.Anything, int64(1)).After(50*time.Millisecond).Return(snapshot.EntrySummary{}, ErrNotFound)
	mocked.On("FetchEntry", mock.Anything, int64(2)).Return(snapshot.EntrySummary{EntryID: 2, ManagerName: "Bea"}, nil)
	mocked.On("FetchPicks", mock.Anything, int64(2), 4).Return(squadPicks(), nil)
	source := &slowPlayersSource{mockDataSource: mocked, delay: 200 * time.Millisecond}

	svc, _ := newTestSnapshotService(source, SnapshotServiceConfig{})

	var (
		wg        sync.WaitGroup
		failedErr error
		second    snapshot.TeamSnapshot
		secondErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, failedErr = svc.BuildSnapshot(context.Background(), 1, 4)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		second, secondErr = svc.BuildSnapshot(context.Background(), 2, 4)
	}()
	wg.Wait()

	assert.ErrorIs(t, failedErr, ErrNotFound)
	require.NoError(t, secondErr)
	assert.Equal(t, "Bea", second.ManagerName)
	require.Len(t, second.Players, player.StartingLineupSize)
	assert.Equal(t, int32(1), source.calls.Load(), "both builds share one directory refresh")
	assert.True(t, svc.players.Status().CacheValid)
}

func TestSnapshotService_BuildSnapshot_InvalidEntry(t *testing.T) {
	t.Parallel()

	svc, _ := newTestSnapshotService(&mockDataSource{}, SnapshotServiceConfig{})
	_, err := svc.BuildSnapshot(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSnapshotService_LiveTeams(t *testing.T) {
	t.Parallel()

	source := &mockDataSource{}
	source.On("FetchEvents", mock.Anything).Return([]gameweek.Gameweek{{ID: 2, IsCurrent: true}}, nil)
	source.On("FetchStandings", mock.Anything, int64(314)).Return(threeManagerStandings(), nil)
	source.On("FetchPlayers", mock.Anything).Return(samplePlayers(), nil)
	source.On("FetchEntry", mock.Anything, int64(101)).Return(snapshot.EntrySummary{EntryID: 101}, nil)
	source.On("FetchEntry", mock.Anything, int64(102)).Return(snapshot.EntrySummary{}, ErrUpstreamFetch)
	source.On("FetchEntry", mock.Anything, int64(103)).Return(snapshot.EntrySummary{EntryID: 103, ManagerName: "Cyrus"}, nil)
	source.On("FetchPicks", mock.Anything, mock.Anything, 2).Return(squadPicks(), nil)

	svc, clk := newTestSnapshotService(source, SnapshotServiceConfig{LeagueID: 314, LiveBatchSize: 2, LiveBatchDelay: time.Second})

	got, err := svc.LiveTeams(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Gameweek)
	assert.Equal(t, 3, got.TotalAttempts)
	assert.Equal(t, 2, got.SuccessfulCount)
	require.Len(t, got.Teams, 2)

	assert.Equal(t, int64(101), got.Teams[0].EntryID)
	assert.Equal(t, 1, got.Teams[0].Rank)
	assert.Equal(t, 300, got.Teams[0].TotalPoints)
	assert.Equal(t, "Ana", got.Teams[0].ManagerName, "falls back to the standings name")
	assert.Equal(t, "Cyrus", got.Teams[1].ManagerName)
	assert.Equal(t, []time.Duration{time.Second}, clk.Sleeps())
}

func TestSnapshotService_LiveTeams_RequiresLeague(t *testing.T) {
	t.Parallel()

	source := &mockDataSource{}
	svc, _ := newTestSnapshotService(source, SnapshotServiceConfig{})

	_, err := svc.LiveTeams(context.Background(), 5)
	assert.ErrorIs(t, err, ErrConfiguration)
	source.AssertNotCalled(t, "FetchEvents", mock.Anything)
}
