package httpapi

import (
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

type captureQuery struct {
	Top  int    `validate:"omitempty,min=1,max=50"`
	Mode string `validate:"omitempty,oneof=sequential bounded-batch batch"`
}

type liveTeamsQuery struct {
	Top int `validate:"omitempty,min=1,max=50"`
}

type teamSnapshotQuery struct {
	Gameweek int `validate:"omitempty,min=1,max=38"`
}

type managerDTO struct {
	EntryID        int64  `json:"entryId"`
	Rank           int    `json:"rank"`
	PlayerName     string `json:"playerName"`
	TeamName       string `json:"teamName"`
	TotalPoints    int    `json:"totalPoints"`
	GameweekPoints int    `json:"gwPoints"`
}

type captureResultDTO struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	FilePath string `json:"filepath,omitempty"`
	URL      string `json:"url,omitempty"`
	Base64   string `json:"base64,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
	Degraded bool   `json:"degraded,omitempty"`
}

type managerCaptureDTO struct {
	EntryID        int64            `json:"entryId"`
	Rank           int              `json:"rank"`
	PlayerName     string           `json:"playerName"`
	TeamName       string           `json:"teamName"`
	TotalPoints    int              `json:"totalPoints"`
	GameweekPoints int              `json:"gwPoints"`
	CaptureResult  captureResultDTO `json:"captureResult"`
	Timestamp      string           `json:"timestamp"`
}

// BatchReportDTO is the wire form of a capture batch, shared with the CLI.
type BatchReportDTO struct {
	RunID              string              `json:"runId"`
	Success            bool                `json:"success"`
	Mode               string              `json:"mode"`
	Gameweek           int                 `json:"gameweek"`
	LeagueName         string              `json:"leagueName"`
	TotalAttempts      int                 `json:"totalAttempts"`
	SuccessfulCaptures int                 `json:"successfulCaptures"`
	Captures           []managerCaptureDTO `json:"captures"`
	StartedAt          string              `json:"startedAt"`
	LastUpdated        string              `json:"lastUpdated"`
}

type attemptRecordDTO struct {
	Number    int    `json:"number"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

type singleCaptureDTO struct {
	EntryID     int64              `json:"entryId"`
	ManagerName string             `json:"managerName"`
	TeamName    string             `json:"teamName"`
	Gameweek    int                `json:"gameweek"`
	Result      captureResultDTO   `json:"captureResult"`
	Attempts    []attemptRecordDTO `json:"attempts"`
}

type lineupPlayerDTO struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Position      string  `json:"position"`
	TeamID        int     `json:"teamId"`
	TotalPoints   int     `json:"totalPoints"`
	Form          string  `json:"form"`
	Price         float64 `json:"price"`
	Slot          int     `json:"slot"`
	Multiplier    int     `json:"multiplier"`
	IsCaptain     bool    `json:"isCaptain"`
	IsViceCaptain bool    `json:"isViceCaptain"`
	Known         bool    `json:"known"`
}

type teamSnapshotDTO struct {
	EntryID        int64             `json:"entryId"`
	Gameweek       int               `json:"gameweek"`
	ManagerName    string            `json:"managerName"`
	TeamName       string            `json:"teamName"`
	TotalPoints    int               `json:"totalPoints"`
	GameweekPoints int               `json:"gwPoints"`
	Rank           int               `json:"rank"`
	TeamValue      float64           `json:"teamValue"`
	Bank           float64           `json:"bank"`
	Players        []lineupPlayerDTO `json:"players"`
}

type liveTeamsDTO struct {
	Gameweek      int               `json:"gameweek"`
	LeagueName    string            `json:"leagueName"`
	TotalAttempts int               `json:"totalAttempts"`
	TotalScraped  int               `json:"totalScraped"`
	Teams         []teamSnapshotDTO `json:"teams"`
	LastUpdated   string            `json:"lastUpdated"`
}

type gameweekDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	IsCurrent    bool   `json:"isCurrent"`
	IsFinished   bool   `json:"finished"`
	DeadlineTime string `json:"deadlineTime,omitempty"`
}

type eventListDTO struct {
	CurrentGameweek int           `json:"currentGameweek"`
	Events          []gameweekDTO `json:"events"`
}

type standingsDTO struct {
	LeagueID   int64        `json:"leagueId"`
	LeagueName string       `json:"leagueName"`
	Managers   []managerDTO `json:"managers"`
}

type authCheckDTO struct {
	Authenticated bool   `json:"authenticated"`
	Method        string `json:"method"`
	PlayerID      int64  `json:"playerId"`
	PlayerName    string `json:"playerName"`
	EntryID       int64  `json:"entryId,omitempty"`
}

type cacheStatusDTO struct {
	CacheAgeMs        int64  `json:"cacheAge"`
	CacheValid        bool   `json:"cacheValid"`
	CachedPlayerCount int    `json:"cachedPlayers"`
	RefreshedAt       string `json:"refreshedAt,omitempty"`
	TTLSeconds        int64  `json:"ttlSeconds"`
}

type scraperStatusDTO struct {
	Cache                cacheStatusDTO `json:"cache"`
	AuthMethod           string         `json:"authMethod"`
	LeagueID             int64          `json:"leagueId,omitempty"`
	LeagueConfigured     bool           `json:"leagueConfigured"`
	ReadyToScrape        bool           `json:"readyToScrape"`
	ScreenshotsSupported bool           `json:"screenshotsSupported"`
	ScreenshotsDir       string         `json:"screenshotsDir,omitempty"`
}

type screenshotBase64DTO struct {
	Filename string `json:"filename"`
	DataURL  string `json:"dataUrl"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func managerToDTO(m manager.Manager) managerDTO {
	return managerDTO{
		EntryID:        m.EntryID,
		Rank:           m.Rank,
		PlayerName:     m.PlayerName,
		TeamName:       m.TeamName,
		TotalPoints:    m.TotalPoints,
		GameweekPoints: m.GameweekPoints,
	}
}

func captureResultToDTO(r capture.Result) captureResultDTO {
	return captureResultDTO{
		Success:  r.Success,
		Filename: r.Filename,
		FilePath: r.FilePath,
		URL:      r.URL,
		Base64:   r.EncodedImage,
		Error:    r.ErrorMessage,
		Attempts: r.Attempts,
		Degraded: r.Degraded,
	}
}

// BatchReportToDTO flattens a batch report. Every manager carries the report's
// finish time as its capture timestamp.
func BatchReportToDTO(r capture.BatchReport) BatchReportDTO {
	finished := formatTime(r.LastUpdated)
	captures := make([]managerCaptureDTO, 0, len(r.Captures))
	for _, c := range r.Captures {
		captures = append(captures, managerCaptureDTO{
			EntryID:        c.Manager.EntryID,
			Rank:           c.Manager.Rank,
			PlayerName:     c.Manager.PlayerName,
			TeamName:       c.Manager.TeamName,
			TotalPoints:    c.Manager.TotalPoints,
			GameweekPoints: c.Manager.GameweekPoints,
			CaptureResult:  captureResultToDTO(c.Result),
			Timestamp:      finished,
		})
	}

	return BatchReportDTO{
		RunID:              r.RunID,
		Success:            r.Success,
		Mode:               string(r.Mode),
		Gameweek:           r.Gameweek,
		LeagueName:         r.LeagueName,
		TotalAttempts:      r.TotalAttempts,
		SuccessfulCaptures: r.SuccessfulCaptures,
		Captures:           captures,
		StartedAt:          formatTime(r.StartedAt),
		LastUpdated:        finished,
	}
}

func singleCaptureToDTO(v usecase.SingleCapture) singleCaptureDTO {
	attempts := make([]attemptRecordDTO, 0, len(v.Trace))
	for _, rec := range v.Trace {
		attempts = append(attempts, attemptRecordDTO{
			Number:    rec.Number,
			StartedAt: formatTime(rec.StartedAt),
			EndedAt:   formatTime(rec.EndedAt),
			Error:     rec.Error,
		})
	}

	return singleCaptureDTO{
		EntryID:     v.Entry.EntryID,
		ManagerName: v.Entry.ManagerName,
		TeamName:    v.Entry.TeamName,
		Gameweek:    v.Gameweek,
		Result:      captureResultToDTO(v.Result),
		Attempts:    attempts,
	}
}

func teamSnapshotToDTO(v snapshot.TeamSnapshot) teamSnapshotDTO {
	players := make([]lineupPlayerDTO, 0, len(v.Players))
	for _, p := range v.Players {
		players = append(players, lineupPlayerDTO{
			ID:            p.ID,
			Name:          p.Name,
			Position:      string(p.Position),
			TeamID:        p.TeamID,
			TotalPoints:   p.TotalPoints,
			Form:          p.Form,
			Price:         p.Price,
			Slot:          p.Slot,
			Multiplier:    p.Multiplier,
			IsCaptain:     p.IsCaptain,
			IsViceCaptain: p.IsViceCaptain,
			Known:         p.Found,
		})
	}

	return teamSnapshotDTO{
		EntryID:        v.EntryID,
		Gameweek:       v.Gameweek,
		ManagerName:    v.ManagerName,
		TeamName:       v.TeamName,
		TotalPoints:    v.TotalPoints,
		GameweekPoints: v.GameweekPoints,
		Rank:           v.Rank,
		TeamValue:      v.TeamValue,
		Bank:           v.Bank,
		Players:        players,
	}
}

func liveTeamsToDTO(v usecase.LiveTeams) liveTeamsDTO {
	teams := make([]teamSnapshotDTO, 0, len(v.Teams))
	for _, t := range v.Teams {
		teams = append(teams, teamSnapshotToDTO(t))
	}

	return liveTeamsDTO{
		Gameweek:      v.Gameweek,
		LeagueName:    v.LeagueName,
		TotalAttempts: v.TotalAttempts,
		TotalScraped:  v.SuccessfulCount,
		Teams:         teams,
		LastUpdated:   formatTime(v.LastUpdated),
	}
}

func eventListToDTO(v usecase.EventList) eventListDTO {
	events := make([]gameweekDTO, 0, len(v.Events))
	for _, e := range v.Events {
		events = append(events, gameweekToDTO(e))
	}
	return eventListDTO{CurrentGameweek: v.Current, Events: events}
}

func gameweekToDTO(v gameweek.Gameweek) gameweekDTO {
	return gameweekDTO{
		ID:           v.ID,
		Name:         v.Name,
		IsCurrent:    v.IsCurrent,
		IsFinished:   v.IsFinished,
		DeadlineTime: formatTime(v.DeadlineTime),
	}
}

func standingsToDTO(v manager.Standings) standingsDTO {
	managers := make([]managerDTO, 0, len(v.Managers))
	for _, m := range v.Managers {
		managers = append(managers, managerToDTO(m))
	}
	return standingsDTO{LeagueID: v.LeagueID, LeagueName: v.LeagueName, Managers: managers}
}

func authCheckToDTO(v usecase.AuthCheck) authCheckDTO {
	name := v.Identity.FirstName
	if v.Identity.LastName != "" {
		name += " " + v.Identity.LastName
	}
	return authCheckDTO{
		Authenticated: true,
		Method:        string(v.Method),
		PlayerID:      v.Identity.PlayerID,
		PlayerName:    name,
		EntryID:       v.Identity.EntryID,
	}
}

func cacheStatusToDTO(v usecase.CacheStatus) cacheStatusDTO {
	return cacheStatusDTO{
		CacheAgeMs:        v.CacheAgeMs,
		CacheValid:        v.CacheValid,
		CachedPlayerCount: v.CachedPlayerCount,
		RefreshedAt:       formatTime(v.RefreshedAt),
		TTLSeconds:        int64(v.TTL / time.Second),
	}
}

func scraperStatusToDTO(v usecase.ScraperStatus) scraperStatusDTO {
	return scraperStatusDTO{
		Cache:                cacheStatusToDTO(v.Cache),
		AuthMethod:           string(v.AuthMethod),
		LeagueID:             v.LeagueID,
		LeagueConfigured:     v.LeagueConfigured,
		ReadyToScrape:        v.ReadyToScrape,
		ScreenshotsSupported: v.ScreenshotsSupported,
		ScreenshotsDir:       v.ScreenshotsDir,
	}
}
