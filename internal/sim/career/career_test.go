package career

import (
	"errors"
	"testing"

	"gigcraft.ai/internal/sim/rng"
)

func freshPlayer() Player {
	return Player{
		Name:             "Sam",
		BandName:         "The Static",
		Money:            500,
		Health:           80,
		Skill:            30,
		Talent:           50,
		Hype:             10,
		Cred:             20,
		Stability:        70,
		Image:            40,
		IndustryGoodwill: 20,
	}
}

func TestPlayerApply_ClampsBoundedStats(t *testing.T) {
	p := freshPlayer()
	r := rng.New(7)
	for i := 0; i < 500; i++ {
		d := StatDelta{
			Money:     r.NextInt(-500, 500),
			Fans:      r.NextInt(-200, 200),
			Health:    r.NextInt(-80, 80),
			Hype:      r.NextInt(-80, 80),
			Addiction: r.NextInt(-80, 80),
			AlgoBoost: r.NextInt(-80, 80),
			Burnout:   r.NextInt(-80, 80),
		}
		prevFans := p.Fans
		p = p.Apply(d)
		for _, st := range BoundedStats {
			v, _ := p.Get(st)
			if v < StatMin || v > StatMax {
				t.Fatalf("step %d: %s=%d out of range", i, st, v)
			}
		}
		if p.Fans < prevFans {
			t.Fatalf("fans decreased: %d -> %d", prevFans, p.Fans)
		}
	}
}

func TestPlayerApply_MoneyGoesNegative(t *testing.T) {
	p := freshPlayer().Apply(StatDelta{Money: -5000})
	if p.Money != -4500 {
		t.Fatalf("money=%d want -4500", p.Money)
	}
}

func TestStatDelta_StringAndPlus(t *testing.T) {
	d := StatDelta{Health: 5}.Plus(StatDelta{Health: 3, Hype: -2})
	if d.Health != 8 || d.Hype != -2 {
		t.Fatalf("plus: %+v", d)
	}
	if got := d.String(); got != "health +8, hype -2" {
		t.Fatalf("string: %q", got)
	}
	if !(StatDelta{}).IsZero() {
		t.Fatalf("zero delta should be zero")
	}
}

func TestBandmate_FinalStatusesStayFinal(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.Bandmates = []Bandmate{{ID: "member-1", Name: "Ana", Role: RoleDrums, Status: StatusActive, Loyalty: 50}}
	if err := s.FireBandmate("member-1"); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if err := s.FireBandmate("member-1"); !errors.Is(err, ErrBandmateFinal) {
		t.Fatalf("second fire: got %v", err)
	}
	if err := s.FireBandmate("nobody"); !errors.Is(err, ErrUnknownBandmate) {
		t.Fatalf("unknown: got %v", err)
	}
	if len(s.Bandmates) != 1 {
		t.Fatalf("roster must keep fired members")
	}
	if !s.Collapsed() {
		t.Fatalf("roster with only fired members is collapsed")
	}
}

func TestRiskCheck_RehabReturns(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.Bandmates = []Bandmate{{ID: "m", Name: "Ana", Role: RoleBass, Status: StatusRehab, RehabWeeksRemaining: 1, Vice: 80, Loyalty: 50}}
	notes := s.RiskCheck(rng.New(1))
	if s.Bandmates[0].Status != StatusActive || s.Bandmates[0].Vice != 55 {
		t.Fatalf("rehab return: %+v", s.Bandmates[0])
	}
	if len(notes) != 1 {
		t.Fatalf("notes=%v", notes)
	}
}

func TestGenerateBandmate_Deterministic(t *testing.T) {
	a := GenerateBandmate(rng.New(3), "member-1", RoleKeys, 1000, "Ana Ruiz", 4)
	b := GenerateBandmate(rng.New(3), "member-1", RoleKeys, 1000, "Ana Ruiz", 4)
	if a != b {
		t.Fatalf("generator not deterministic: %+v vs %+v", a, b)
	}
	if a.Name != "Ana Ruiz" || a.Status != StatusActive || a.Role != RoleKeys || a.JoinedWeek != 4 {
		t.Fatalf("unexpected bandmate %+v", a)
	}
}

func TestGenerateBandmate_BlankNameFallsBack(t *testing.T) {
	b := GenerateBandmate(rng.New(3), "member-2", RoleBass, 0, "  ", 1)
	if b.Name != "Session bass player" {
		t.Fatalf("name=%q", b.Name)
	}
}

func TestClone_DoesNotShareMemory(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.Songs = []Song{{ID: "song-1", StreamsTier: TierNone, ChartHistory: []ChartEntry{{Week: 1, Position: 50}}}}
	s.TemptationCooldowns["t"] = 3
	s.PendingNamings = []PendingNaming{SongNamingFor(s.Songs[0])}

	c := s.Clone()
	c.Songs[0].ChartHistory[0].Position = 1
	c.TemptationCooldowns["t"] = 0
	c.PendingNamings[0].Song.DefaultTitle = "changed"
	c.Player.Health = 1

	if s.Songs[0].ChartHistory[0].Position != 50 {
		t.Fatalf("chart history shared")
	}
	if s.TemptationCooldowns["t"] != 3 {
		t.Fatalf("cooldowns shared")
	}
	if s.PendingNamings[0].Song.DefaultTitle == "changed" {
		t.Fatalf("naming payload shared")
	}
	if s.Player.Health != 80 {
		t.Fatalf("player shared")
	}
}

func TestValidate_RejectsConflictingSessions(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.RecordingSession = &RecordingSession{ID: "session-1", WeeksRemaining: 2}
	s.TourSession = &TourSession{ID: "session-2", WeeksRemaining: 2}
	s.Player.Flags.InStudio = true
	s.Player.Flags.OnTour = true
	if err := s.Validate(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestValidate_ArcExclusive(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.ActiveArcs = []ActiveArc{{ArcID: "rivalry"}}
	s.CompletedArcIDs = []string{"rivalry"}
	if err := s.Validate(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestValidate_NamingVariant(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.PendingNamings = []PendingNaming{{Kind: NamingAlbum, Song: &SongNaming{SongID: "x"}}}
	if err := s.Validate(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := NewState("run", 99, "hard", freshPlayer())
	s.Songs = []Song{{ID: "song-1", Title: "Static", StreamsTier: TierLow, Released: true, ReleasedWeek: 1}}
	s.LabelDeals = []LabelDeal{{ID: "deal-1", DealType: Deal360, Status: DealActive, Advance: 1000, RecoupDebt: 800}}
	s.Player.Flags.HasLabelDeal = true
	s.PendingNamings = []PendingNaming{SongNamingFor(s.Songs[0])}

	b, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	again, err := Encode(got)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(b) != string(again) {
		t.Fatalf("round trip changed document:\n%s\n%s", b, again)
	}
	if got.PendingNamings[0].TargetID() != "song-1" {
		t.Fatalf("naming target=%q", got.PendingNamings[0].TargetID())
	}
}

func TestDecode_RejectsHasLabelDealMismatch(t *testing.T) {
	s := NewState("run", 1, "normal", freshPlayer())
	s.Player.Flags.HasLabelDeal = true
	b, err := Encode(s)
	if err == nil {
		t.Fatalf("encode should reject flag without deal, got %s", b)
	}
}

func TestYearForWeek(t *testing.T) {
	cases := map[int]int{1: 1, 52: 1, 53: 2, 520: 10}
	for week, want := range cases {
		if got := YearForWeek(week); got != want {
			t.Fatalf("week %d: year %d want %d", week, got, want)
		}
	}
}
