package snapshot

import (
	"fmt"

	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
)

// EntrySummary is the per-manager header data fetched upstream. TeamValue
// and Bank are already converted from tenths to units.
type EntrySummary struct {
	EntryID        int64
	ManagerName    string
	TeamName       string
	TotalPoints    int
	GameweekPoints int
	Rank           int
	TeamValue      float64
	Bank           float64
}

// LineupPlayer is a player record joined with that manager's pick flags.
// Found is false when the pick referenced an id missing from the directory.
type LineupPlayer struct {
	player.Record
	Slot          int
	Multiplier    int
	IsCaptain     bool
	IsViceCaptain bool
	Found         bool
}

// TeamSnapshot is built fresh per request and never cached.
type TeamSnapshot struct {
	EntryID        int64
	Gameweek       int
	ManagerName    string
	TeamName       string
	TotalPoints    int
	GameweekPoints int
	Rank           int
	TeamValue      float64
	Bank           float64
	Players        []LineupPlayer
}

// Build joins picks to dir by player id, keeping only the first
// player.StartingLineupSize picks in the order given.
func Build(summary EntrySummary, gameweek int, picks []player.Pick, dir player.Directory) (TeamSnapshot, error) {
	if summary.EntryID <= 0 {
		return TeamSnapshot{}, fmt.Errorf("entry id must be positive")
	}

	lineup := picks
	if len(lineup) > player.StartingLineupSize {
		lineup = lineup[:player.StartingLineupSize]
	}

	players := make([]LineupPlayer, 0, len(lineup))
	for _, pick := range lineup {
		record, ok := dir.Lookup(pick.PlayerID)
		if !ok {
			record = player.Record{ID: pick.PlayerID, Position: player.PositionUnknown}
		}
		players = append(players, LineupPlayer{
			Record:        record,
			Slot:          pick.Slot,
			Multiplier:    pick.Multiplier,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
			Found:         ok,
		})
	}

	return TeamSnapshot{
		EntryID:        summary.EntryID,
		Gameweek:       gameweek,
		ManagerName:    summary.ManagerName,
		TeamName:       summary.TeamName,
		TotalPoints:    summary.TotalPoints,
		GameweekPoints: summary.GameweekPoints,
		Rank:           summary.Rank,
		TeamValue:      summary.TeamValue,
		Bank:           summary.Bank,
		Players:        players,
	}, nil
}

// Captain returns the captained player, if the lineup has one.
func (s TeamSnapshot) Captain() (LineupPlayer, bool) {
	for _, p := range s.Players {
		if p.IsCaptain {
			return p, true
		}
	}
	return LineupPlayer{}, false
}
