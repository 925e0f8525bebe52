package actions

import (
	"slices"
	"testing"

	"gigcraft.ai/internal/sim/career"
)

func fresh() *career.GameState {
	return career.NewState("run", 1, "normal", career.Player{Money: 800, Health: 80, Hype: 10})
}

func TestAvailable_FreshState(t *testing.T) {
	got := Available(fresh())
	for _, want := range []ID{Rest, Practice, Write, Promote, Party, Network, SideJob, Recruit, BookGig} {
		if !slices.Contains(got, want) {
			t.Fatalf("%s missing from %v", want, got)
		}
	}
	for _, no := range []ID{Rehab, ReleaseSingle, ReleaseAlbum, RecordWeek, TourWeek} {
		if slices.Contains(got, no) {
			t.Fatalf("%s should not be available: %v", no, got)
		}
	}
}

func TestAvailable_SessionLocksMenu(t *testing.T) {
	s := fresh()
	s.TourSession = &career.TourSession{ID: "session-1", WeeksRemaining: 2}
	s.Player.Flags.OnTour = true
	got := Available(s)
	if len(got) != 1 || got[0] != TourWeek {
		t.Fatalf("on tour menu: %v", got)
	}
	s.TourSession = nil
	s.Player.Flags.OnTour = false
	s.RecordingSession = &career.RecordingSession{ID: "session-2", WeeksRemaining: 2}
	if got := Available(s); len(got) != 1 || got[0] != RecordWeek {
		t.Fatalf("studio menu: %v", got)
	}
}

func TestIsAvailable_Requirements(t *testing.T) {
	s := fresh()
	s.Player.Money = 50
	if IsAvailable(Promote, s) {
		t.Fatalf("promote needs $100")
	}
	s.Player.Money = 5000
	s.Player.Addiction = 30
	if !IsAvailable(Rehab, s) {
		t.Fatalf("rehab should be open")
	}
	s.Songs = []career.Song{{ID: "song-1", StreamsTier: career.TierNone}}
	if !IsAvailable(ReleaseSingle, s) {
		t.Fatalf("loose song should be releasable")
	}
	s.UpcomingGig = &career.Gig{VenueID: "club"}
	if IsAvailable(BookGig, s) {
		t.Fatalf("cannot double-book")
	}
	s.IsGameOver = true
	if IsAvailable(Rest, s) {
		t.Fatalf("nothing is available after game over")
	}
	if IsAvailable("DANCE", fresh()) {
		t.Fatalf("unknown action available")
	}
}

func TestRecruit_NeedsOpenRole(t *testing.T) {
	s := fresh()
	for i, r := range career.Roles {
		s.Bandmates = append(s.Bandmates, career.Bandmate{ID: string(rune('a' + i)), Role: r, Status: career.StatusActive})
	}
	if IsAvailable(Recruit, s) {
		t.Fatalf("full band cannot recruit")
	}
}
