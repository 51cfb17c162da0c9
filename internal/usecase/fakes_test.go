package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
)

type mockDataSource struct {
	mock.Mock
}

func (m *mockDataSource) FetchEvents(ctx context.Context) ([]gameweek.Gameweek, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]gameweek.Gameweek)
	return out, args.Error(1)
}

func (m *mockDataSource) FetchStandings(ctx context.Context, leagueID int64) (manager.Standings, error) {
	args := m.Called(ctx, leagueID)
	out, _ := args.Get(0).(manager.Standings)
	return out, args.Error(1)
}

func (m *mockDataSource) FetchEntry(ctx context.Context, entryID int64) (snapshot.EntrySummary, error) {
	args := m.Called(ctx, entryID)
	out, _ := args.Get(0).(snapshot.EntrySummary)
	return out, args.Error(1)
}

func (m *mockDataSource) FetchPicks(ctx context.Context, entryID int64, gameweekID int) ([]player.Pick, error) {
	args := m.Called(ctx, entryID, gameweekID)
	out, _ := args.Get(0).([]player.Pick)
	return out, args.Error(1)
}

func (m *mockDataSource) FetchPlayers(ctx context.Context) ([]player.Record, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]player.Record)
	return out, args.Error(1)
}

func (m *mockDataSource) FetchMe(ctx context.Context) (Identity, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(Identity)
	return out, args.Error(1)
}

// fakeLauncher counts browser launches and closes. navFailures makes the
// first N captures of an entry fail with a navigation timeout.
type fakeLauncher struct {
	mu          sync.Mutex
	launches    int
	closes      int
	launchErrs  int
	navFailures map[int64]int
	captured    []capture.Target
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{navFailures: map[int64]int{}}
}

func (l *fakeLauncher) Launch(_ context.Context) (BrowserSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.launchErrs > 0 {
		l.launchErrs--
		return nil, fmt.Errorf("chrome exited with status 127")
	}
	l.launches++
	return &fakeSession{launcher: l}, nil
}

func (l *fakeLauncher) counts() (launches, closes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches, l.closes
}

type fakeSession struct {
	launcher *fakeLauncher
	closed   bool
}

func (s *fakeSession) CaptureTeam(_ context.Context, target capture.Target) (capture.Image, error) {
	l := s.launcher
	l.mu.Lock()
	defer l.mu.Unlock()

	l.captured = append(l.captured, target)
	if l.navFailures[target.EntryID] > 0 {
		l.navFailures[target.EntryID]--
		return capture.Image{}, fmt.Errorf("%w: entry=%d", ErrNavigationTimeout, target.EntryID)
	}
	name := fmt.Sprintf("team_%d_gw%d_1700000000000.png", target.EntryID, target.Gameweek)
	return capture.Image{Filename: name, Path: "screenshots/" + name, PNG: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func (s *fakeSession) Close() error {
	l := s.launcher
	l.mu.Lock()
	defer l.mu.Unlock()

	if !s.closed {
		s.closed = true
		l.closes++
	}
	return nil
}

type memoryImageStore struct {
	files map[string][]byte
}

func (s memoryImageStore) Open(filename string) ([]byte, error) {
	data, ok := s.files[filename]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", filename, fs.ErrNotExist)
	}
	return data, nil
}

func (s memoryImageStore) Dir() string { return "screenshots" }
