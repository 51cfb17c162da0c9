package gameweek

import "time"

// FallbackID is returned when no event is current and none is unfinished.
const FallbackID = 1

// Gameweek is one scored round as reported by the upstream event list.
type Gameweek struct {
	ID           int
	Name         string
	IsCurrent    bool
	IsFinished   bool
	DeadlineTime time.Time
}

// Resolve picks the competition's "current" gameweek id from events, taken
// in the order given: the event flagged current, else the first event not
// finished, else FallbackID.
//
// The second rule can select a future gameweek when several are unfinished;
// that behavior is intentional and kept until product decides otherwise.
func Resolve(events []Gameweek) int {
	for _, e := range events {
		if e.IsCurrent && e.ID > 0 {
			return e.ID
		}
	}
	for _, e := range events {
		if !e.IsFinished && e.ID > 0 {
			return e.ID
		}
	}
	return FallbackID
}

// Find returns the event with id, if present.
func Find(events []Gameweek, id int) (Gameweek, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return Gameweek{}, false
}
