package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaptureRunner struct {
	allInput  *usecase.CaptureAllInput
	report    capture.BatchReport
	allErr    error
	single    usecase.SingleCapture
	singleErr error
	panicOn   bool
}

func (s *stubCaptureRunner) CaptureAll(_ context.Context, input usecase.CaptureAllInput) (capture.BatchReport, error) {
	if s.panicOn {
		panic("boom")
	}
	s.allInput = &input
	return s.report, s.allErr
}

func (s *stubCaptureRunner) CaptureSingle(_ context.Context, _ int64) (usecase.SingleCapture, error) {
	return s.single, s.singleErr
}

type stubSnapshotBuilder struct {
	entryID  int64
	gameweek int
	liveTop  int
	team     snapshot.TeamSnapshot
	live     usecase.LiveTeams
	err      error
}

func (s *stubSnapshotBuilder) BuildSnapshot(_ context.Context, entryID int64, gameweekID int) (snapshot.TeamSnapshot, error) {
	s.entryID = entryID
	s.gameweek = gameweekID
	return s.team, s.err
}

func (s *stubSnapshotBuilder) LiveTeams(_ context.Context, topN int) (usecase.LiveTeams, error) {
	s.liveTop = topN
	return s.live, s.err
}

type stubLeagueReader struct {
	status usecase.ScraperStatus
	auth   usecase.AuthCheck
	err    error
}

func (s *stubLeagueReader) Events(context.Context) (usecase.EventList, error) {
	return usecase.EventList{}, s.err
}

func (s *stubLeagueReader) Standings(context.Context) (manager.Standings, error) {
	return manager.Standings{}, s.err
}

func (s *stubLeagueReader) CheckAuth(context.Context) (usecase.AuthCheck, error) {
	return s.auth, s.err
}

func (s *stubLeagueReader) CacheStatus() usecase.CacheStatus { return s.status.Cache }

func (s *stubLeagueReader) Status() usecase.ScraperStatus { return s.status }

type stubScreenshotReader struct {
	files map[string][]byte
}

func (s *stubScreenshotReader) Image(filename string) ([]byte, error) {
	data, ok := s.files[filename]
	if !ok {
		return nil, fmt.Errorf("%w: screenshot=%s", usecase.ErrNotFound, filename)
	}
	return data, nil
}

func (s *stubScreenshotReader) DataURL(filename string) (string, error) {
	data, err := s.Image(filename)
	if err != nil {
		return "", err
	}
	return usecase.EncodeDataURL(data), nil
}

type routerFixture struct {
	captures    *stubCaptureRunner
	snapshots   *stubSnapshotBuilder
	league      *stubLeagueReader
	screenshots *stubScreenshotReader
	router      http.Handler
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		captures:    &stubCaptureRunner{},
		snapshots:   &stubSnapshotBuilder{},
		league:      &stubLeagueReader{},
		screenshots: &stubScreenshotReader{files: map[string][]byte{}},
	}
	handler := NewHandler(f.captures, f.snapshots, f.league, f.screenshots, logging.NewNop())
	f.router = NewRouter(handler, logging.NewNop(), true, []string{"*"})
	return f
}

func (f *routerFixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func errorStatus(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	status, _ := errObj["status"].(string)
	return status
}

func TestCaptureAll_DefaultsDeferToService(t *testing.T) {
	f := newRouterFixture()
	finished := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	f.captures.report = capture.BatchReport{
		RunID:              "run-1",
		Success:            true,
		Mode:               capture.ModeSequential,
		Gameweek:           5,
		LeagueName:         "Office League",
		TotalAttempts:      1,
		SuccessfulCaptures: 1,
		Captures: []capture.ManagerCapture{{
			Manager: manager.Manager{EntryID: 11, Rank: 1, PlayerName: "Ana", TeamName: "Ana FC"},
			Result:  capture.Result{Success: true, Filename: "team_11_gw5_1.png", Attempts: 1},
		}},
		LastUpdated: finished,
	}

	rec, body := f.get(t, "/v1/captures")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.captures.allInput)
	assert.Equal(t, 0, f.captures.allInput.TopN)
	assert.Equal(t, capture.Mode(""), f.captures.allInput.Mode)

	data, _ := body["data"].(map[string]any)
	assert.Equal(t, "run-1", data["runId"])
	assert.EqualValues(t, 1, data["successfulCaptures"])
	captures, _ := data["captures"].([]any)
	require.Len(t, captures, 1)
	first, _ := captures[0].(map[string]any)
	assert.EqualValues(t, 11, first["entryId"])
	assert.Equal(t, "2026-09-20T12:00:00Z", first["timestamp"])
}

func TestCaptureAll_ParsesModeAlias(t *testing.T) {
	f := newRouterFixture()

	rec, _ := f.get(t, "/v1/captures?top=3&mode=BATCH")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.captures.allInput)
	assert.Equal(t, 3, f.captures.allInput.TopN)
	assert.Equal(t, capture.ModeBoundedBatch, f.captures.allInput.Mode)
}

func TestCaptureAll_RejectsInvalidQuery(t *testing.T) {
	for _, path := range []string{
		"/v1/captures?top=99",
		"/v1/captures?top=-1",
		"/v1/captures?top=abc",
		"/v1/captures?mode=parallel",
	} {
		t.Run(path, func(t *testing.T) {
			f := newRouterFixture()

			rec, body := f.get(t, path)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_ARGUMENT", errorStatus(body))
			assert.Nil(t, f.captures.allInput, "service must not run on invalid input")
		})
	}
}

func TestCaptureAll_MissingLeague(t *testing.T) {
	f := newRouterFixture()
	f.captures.allErr = fmt.Errorf("%w: league id is not configured", usecase.ErrConfiguration)

	rec, body := f.get(t, "/v1/captures")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FAILED_PRECONDITION", errorStatus(body))
}

func TestCaptureSingle_FailureKeepsResult(t *testing.T) {
	f := newRouterFixture()
	f.captures.single = usecase.SingleCapture{
		Entry:    snapshot.EntrySummary{EntryID: 42, ManagerName: "Bo"},
		Gameweek: 7,
		Result:   capture.Result{Success: false, ErrorMessage: "navigation timed out", Attempts: 3},
		Trace:    []capture.AttemptRecord{{Number: 1, Error: "navigation timed out"}},
	}
	f.captures.singleErr = fmt.Errorf("%w: entry=42", usecase.ErrCaptureFailed)

	rec, body := f.get(t, "/v1/captures/42")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	data, _ := body["data"].(map[string]any)
	result, _ := data["captureResult"].(map[string]any)
	assert.Equal(t, false, result["success"])
	assert.EqualValues(t, 3, result["attempts"])
	assert.Equal(t, "navigation timed out", result["error"])
}

func TestCaptureSingle_InvalidEntryID(t *testing.T) {
	f := newRouterFixture()

	rec, body := f.get(t, "/v1/captures/abc")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", errorStatus(body))
}

func TestGetTeamSnapshot_PassesGameweek(t *testing.T) {
	f := newRouterFixture()
	f.snapshots.team = snapshot.TeamSnapshot{
		EntryID:  7,
		Gameweek: 5,
		Players: []snapshot.LineupPlayer{{
			Record:    player.Record{ID: 1, Name: "Keeper", Position: player.PositionGoalkeeper, Price: 4.5},
			Slot:      1,
			IsCaptain: true,
			Found:     true,
		}},
	}

	rec, body := f.get(t, "/v1/teams/7?gameweek=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, f.snapshots.entryID)
	assert.Equal(t, 5, f.snapshots.gameweek)

	data, _ := body["data"].(map[string]any)
	players, _ := data["players"].([]any)
	require.Len(t, players, 1)
	first, _ := players[0].(map[string]any)
	assert.Equal(t, "GKP", first["position"])
	assert.Equal(t, true, first["isCaptain"])
}

func TestGetTeamSnapshot_UnknownEntry(t *testing.T) {
	f := newRouterFixture()
	f.snapshots.err = fmt.Errorf("fetch entry=9: %w", usecase.ErrNotFound)

	rec, body := f.get(t, "/v1/teams/9")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorStatus(body))
}

func TestListLiveTeams_RoutesBeforeEntryPattern(t *testing.T) {
	f := newRouterFixture()
	f.snapshots.live = usecase.LiveTeams{Gameweek: 3, SuccessfulCount: 0, TotalAttempts: 2}

	rec, body := f.get(t, "/v1/teams/live?top=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.snapshots.liveTop)
	assert.Zero(t, f.snapshots.entryID)
	data, _ := body["data"].(map[string]any)
	assert.EqualValues(t, 0, data["totalScraped"])
	assert.EqualValues(t, 2, data["totalAttempts"])
}

func TestCheckAuth_UpstreamRejected(t *testing.T) {
	f := newRouterFixture()
	f.league.err = fmt.Errorf("fetch me: %w", usecase.ErrAuth)

	rec, body := f.get(t, "/v1/auth/check")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorStatus(body))
}

func TestGetStatus(t *testing.T) {
	f := newRouterFixture()
	f.league.status = usecase.ScraperStatus{
		Cache:            usecase.CacheStatus{CacheAgeMs: 1500, CacheValid: true, CachedPlayerCount: 600, TTL: 5 * time.Minute},
		AuthMethod:       auth.MethodCookie,
		LeagueID:         314,
		LeagueConfigured: true,
		ReadyToScrape:    true,
	}

	rec, body := f.get(t, "/v1/status")

	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := body["data"].(map[string]any)
	assert.Equal(t, "cookie", data["authMethod"])
	assert.Equal(t, true, data["readyToScrape"])
	cache, _ := data["cache"].(map[string]any)
	assert.EqualValues(t, 600, cache["cachedPlayers"])
	assert.EqualValues(t, 300, cache["ttlSeconds"])
}

func TestGetScreenshot(t *testing.T) {
	f := newRouterFixture()
	png := []byte{0x89, 'P', 'N', 'G'}
	f.screenshots.files["team_1_gw2_3.png"] = png

	rec, _ := f.get(t, "/v1/screenshots/team_1_gw2_3.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	rec, body := f.get(t, "/v1/screenshots/team_1_gw2_3.png/base64")
	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := body["data"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,iVBORw==", data["dataUrl"])

	rec, body = f.get(t, "/v1/screenshots/team_9_gw9_9.png")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorStatus(body))
}

func TestRouter_RecoversPanic(t *testing.T) {
	f := newRouterFixture()
	f.captures.panicOn = true

	rec, body := f.get(t, "/v1/captures")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", errorStatus(body))
}

func TestRouter_ServesDocsWhenEnabled(t *testing.T) {
	f := newRouterFixture()

	rec, _ := f.get(t, "/openapi.yaml")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/captures")
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	f.router.ServeHTTP(cached, req)

	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Zero(t, cached.Body.Len())

	page, _ := f.get(t, "/docs")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Fantasy Capture API Docs")
}
