package fpl

import (
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

type eventPayload struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	IsCurrent    bool   `json:"is_current"`
	Finished     bool   `json:"finished"`
	DeadlineTime string `json:"deadline_time"`
}

type bootstrapEnvelope struct {
	Elements []elementPayload `json:"elements"`
}

type elementPayload struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	WebName     string `json:"web_name"`
	ElementType int    `json:"element_type"`
	Team        int    `json:"team"`
	TotalPoints int    `json:"total_points"`
	Form        string `json:"form"`
	NowCost     int    `json:"now_cost"`
}

type standingsEnvelope struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Standings struct {
		Results []standingRow `json:"results"`
	} `json:"standings"`
}

type standingRow struct {
	Entry      int64  `json:"entry"`
	EntryName  string `json:"entry_name"`
	PlayerName string `json:"player_name"`
	Rank       int    `json:"rank"`
	Total      int    `json:"total"`
	EventTotal int    `json:"event_total"`
}

type entryPayload struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	PlayerFirstName      string `json:"player_first_name"`
	PlayerLastName       string `json:"player_last_name"`
	SummaryOverallPoints int    `json:"summary_overall_points"`
	SummaryEventPoints   int    `json:"summary_event_points"`
	SummaryOverallRank   int    `json:"summary_overall_rank"`
	LastDeadlineValue    int    `json:"last_deadline_value"`
	LastDeadlineBank     int    `json:"last_deadline_bank"`
}

type picksEnvelope struct {
	Picks []pickPayload `json:"picks"`
}

type pickPayload struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

type meEnvelope struct {
	Player *struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Entry     int64  `json:"entry"`
	} `json:"player"`
}

func (e eventPayload) toDomain() gameweek.Gameweek {
	out := gameweek.Gameweek{
		ID:         e.ID,
		Name:       e.Name,
		IsCurrent:  e.IsCurrent,
		IsFinished: e.Finished,
	}
	if deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(e.DeadlineTime)); err == nil {
		out.DeadlineTime = deadline.UTC()
	}
	return out
}

func (e elementPayload) toDomain() player.Record {
	name := player.DisplayName(e.FirstName, e.SecondName)
	if name == "" {
		name = strings.TrimSpace(e.WebName)
	}
	return player.Record{
		ID:          e.ID,
		Name:        name,
		Position:    player.PositionFromCode(e.ElementType),
		TeamID:      e.Team,
		TotalPoints: e.TotalPoints,
		Form:        e.Form,
		Price:       player.PriceFromTenths(e.NowCost),
	}
}

func (s standingsEnvelope) toDomain(leagueID int64) manager.Standings {
	out := manager.Standings{
		LeagueID:   s.League.ID,
		LeagueName: s.League.Name,
		Managers:   make([]manager.Manager, 0, len(s.Standings.Results)),
	}
	if out.LeagueID == 0 {
		out.LeagueID = leagueID
	}
	for _, row := range s.Standings.Results {
		if row.Entry <= 0 {
			continue
		}
		out.Managers = append(out.Managers, manager.Manager{
			EntryID:        row.Entry,
			Rank:           row.Rank,
			PlayerName:     row.PlayerName,
			TeamName:       row.EntryName,
			TotalPoints:    row.Total,
			GameweekPoints: row.EventTotal,
		})
	}
	return out
}

func (e entryPayload) toDomain() snapshot.EntrySummary {
	return snapshot.EntrySummary{
		EntryID:        e.ID,
		ManagerName:    strings.TrimSpace(e.PlayerFirstName + " " + e.PlayerLastName),
		TeamName:       e.Name,
		TotalPoints:    e.SummaryOverallPoints,
		GameweekPoints: e.SummaryEventPoints,
		Rank:           e.SummaryOverallRank,
		TeamValue:      player.PriceFromTenths(e.LastDeadlineValue),
		Bank:           player.PriceFromTenths(e.LastDeadlineBank),
	}
}

func (p picksEnvelope) toDomain() []player.Pick {
	out := make([]player.Pick, 0, len(p.Picks))
	for _, item := range p.Picks {
		out = append(out, player.Pick{
			PlayerID:      item.Element,
			Slot:          item.Position,
			Multiplier:    item.Multiplier,
			IsCaptain:     item.IsCaptain,
			IsViceCaptain: item.IsViceCaptain,
		})
	}
	return out
}

func (m meEnvelope) toDomain() (usecase.Identity, bool) {
	if m.Player == nil {
		return usecase.Identity{}, false
	}
	return usecase.Identity{
		PlayerID:  m.Player.ID,
		FirstName: m.Player.FirstName,
		LastName:  m.Player.LastName,
		EntryID:   m.Player.Entry,
	}, true
}
