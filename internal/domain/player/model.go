package player

import (
	"fmt"
	"strings"
)

type Position string

const (
	PositionGoalkeeper Position = "GKP"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
	PositionUnknown    Position = "UNK"
)

// StartingLineupSize is how many picks a snapshot keeps, in pick order.
const StartingLineupSize = 11

var positionsByCode = [...]Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

// PositionFromCode maps the upstream element_type (1..4) to a short label.
func PositionFromCode(code int) Position {
	if code < 1 || code > len(positionsByCode) {
		return PositionUnknown
	}
	return positionsByCode[code-1]
}

// Record is the reduced view of one player kept in the directory.
type Record struct {
	ID          int
	Name        string
	Position    Position
	TeamID      int
	TotalPoints int
	Form        string
	Price       float64
}

func (r Record) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if r.Price < 0 {
		return fmt.Errorf("player price must be non-negative")
	}
	return nil
}

// DisplayName joins first and second names the way the game site shows them.
func DisplayName(first, second string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(second))
}

// PriceFromTenths converts upstream now_cost (tenths of a unit) to units.
func PriceFromTenths(tenths int) float64 {
	return float64(tenths) / 10
}

// Directory maps player id to record.
type Directory map[int]Record

func NewDirectory(records []Record) Directory {
	dir := make(Directory, len(records))
	for _, r := range records {
		dir[r.ID] = r
	}
	return dir
}

func (d Directory) Lookup(id int) (Record, bool) {
	r, ok := d[id]
	return r, ok
}

// Pick is one squad slot chosen by a manager for a gameweek.
type Pick struct {
	PlayerID      int
	Slot          int
	Multiplier    int
	IsCaptain     bool
	IsViceCaptain bool
}
