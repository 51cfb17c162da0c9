package manager

// Manager is one ranked entry in a league's standings.
type Manager struct {
	EntryID        int64
	Rank           int
	PlayerName     string
	TeamName       string
	TotalPoints    int
	GameweekPoints int
}

// Standings is a league's ranked manager list as returned upstream.
type Standings struct {
	LeagueID   int64
	LeagueName string
	Managers   []Manager
}

// Top returns at most n managers in rank order. A non-positive n returns none.
func (s Standings) Top(n int) []Manager {
	if n <= 0 {
		return nil
	}
	if n > len(s.Managers) {
		n = len(s.Managers)
	}
	out := make([]Manager, n)
	copy(out, s.Managers[:n])
	return out
}
