package manager

import "testing"

func TestStandings_Top(t *testing.T) {
	s := Standings{Managers: []Manager{{EntryID: 1}, {EntryID: 2}, {EntryID: 3}}}

	if got := s.Top(2); len(got) != 2 || got[1].EntryID != 2 {
		t.Fatalf("unexpected top 2: %+v", got)
	}
	if got := s.Top(10); len(got) != 3 {
		t.Fatalf("expected all 3 managers, got %d", len(got))
	}
	if got := s.Top(0); got != nil {
		t.Fatalf("expected nil for n=0, got %+v", got)
	}

	top := s.Top(1)
	top[0].EntryID = 99
	if s.Managers[0].EntryID != 1 {
		t.Fatal("Top must not alias the standings slice")
	}
}
