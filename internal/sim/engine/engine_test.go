package engine

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/session"
	"gigcraft.ai/internal/sim/tuning"
)

func shippedEngine(t *testing.T) *Engine {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	e, err := New(tuning.Defaults(), cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

// quietEngine has venues but no narrative content, so turns never block.
func quietEngine(t *testing.T, events []catalogs.Event) *Engine {
	t.Helper()
	venues := []catalogs.Venue{{ID: "bar", Name: "Bar", Capacity: 80, Guarantee: 50, BookingCost: 0}}
	cats, err := catalogs.New(events, nil, nil, venues, catalogs.Names{})
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	tu := tuning.Defaults()
	tu.Triggers.EventChance = 1
	e, err := New(tu, cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func newGame(t *testing.T, e *Engine, seed int64) *career.GameState {
	t.Helper()
	s, err := e.NewGame(NewGameOptions{RunID: "run-test", Seed: seed})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return s
}

// autoplay drives one step of a fixed policy: settle anything pending with
// its first option, otherwise rotate through the available actions.
func autoplay(t *testing.T, e *Engine, s *career.GameState, i int) (*career.GameState, bool) {
	t.Helper()
	cats := e.Catalogs()
	switch {
	case s.PendingEvent != nil:
		ev := cats.Events.ByID[s.PendingEvent.EventID]
		ns, _, err := e.ApplyChoice(s, ev.ID, ev.Choices[0].ID)
		if err != nil {
			t.Fatalf("event choice: %v", err)
		}
		return ns, false
	case s.PendingTemptation != nil:
		tm := cats.Temptations.ByID[s.PendingTemptation.TemptationID]
		ns, _, err := e.ApplyChoice(s, tm.ID, tm.Choices[i%len(tm.Choices)].ID)
		if err != nil {
			t.Fatalf("temptation choice: %v", err)
		}
		return ns, false
	case len(s.PendingNamings) > 0:
		n := s.PendingNamings[0]
		var ns *career.GameState
		var err error
		if n.Kind == career.NamingSong {
			ns, err = e.NameSong(s, n.TargetID(), "")
		} else {
			ns, err = e.NameAlbum(s, n.TargetID(), "")
		}
		if err != nil {
			t.Fatalf("naming: %v", err)
		}
		return ns, false
	}
	if i%17 == 0 && !s.InSession() {
		if ns, _, err := e.StartTour(s, session.TourPlan{Size: "regional"}); err == nil {
			s = ns
		} else if ns, _, err := e.StartRecording(s, session.RecordingPlan{Kind: career.RecordingWriteAndRecord, Studio: "home"}); err == nil {
			s = ns
		}
	}
	avail := e.Available(s)
	res, err := e.ResolveTurn(s, avail[i%len(avail)])
	if err != nil {
		t.Fatalf("turn %d: %v", s.Week, err)
	}
	return res.State, true
}

func TestResolveTurn_Deterministic(t *testing.T) {
	e := shippedEngine(t)
	run := func() []string {
		s := newGame(t, e, 42)
		var digests []string
		for i := 0; i < 200 && !s.IsGameOver; i++ {
			s, _ = autoplay(t, e, s, i)
			d, err := Digest(s)
			if err != nil {
				t.Fatalf("digest: %v", err)
			}
			digests = append(digests, d)
		}
		return digests
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs diverged in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d digest mismatch", i)
		}
	}
}

func TestPlaythrough_Invariants(t *testing.T) {
	e := shippedEngine(t)
	for seed := int64(1); seed <= 5; seed++ {
		s := newGame(t, e, seed)
		stages := map[string]int{}
		for i := 0; i < 250 && !s.IsGameOver; i++ {
			if !s.Blocked() {
				for _, id := range e.Available(s) {
					if _, err := e.ResolveTurn(s, id); err != nil {
						t.Fatalf("seed %d week %d: %s offered but rejected: %v", seed, s.Week, id, err)
					}
				}
			}
			week := s.Week
			ns, turned := autoplay(t, e, s, i)
			if turned && ns.Week != week+1 {
				t.Fatalf("seed %d: week %d -> %d", seed, week, ns.Week)
			}
			if !turned && ns.Week != week {
				t.Fatalf("seed %d: a choice moved the week", seed)
			}
			for _, st := range career.BoundedStats {
				v, _ := ns.Player.Get(st)
				if v < career.StatMin || v > career.StatMax {
					t.Fatalf("seed %d week %d: %s=%d", seed, ns.Week, st, v)
				}
			}
			seen := map[string]bool{}
			for _, id := range ns.TriggeredEventIDs {
				if seen[id] {
					t.Fatalf("seed %d: %s triggered twice", seed, id)
				}
				seen[id] = true
			}
			active := map[string]bool{}
			for _, aa := range ns.ActiveArcs {
				if ns.ArcCompleted(aa.ArcID) {
					t.Fatalf("seed %d: %s both active and completed", seed, aa.ArcID)
				}
				if prev, ok := stages[aa.ArcID]; ok && aa.CurrentStage < prev {
					t.Fatalf("seed %d: %s regressed %d -> %d", seed, aa.ArcID, prev, aa.CurrentStage)
				}
				stages[aa.ArcID] = aa.CurrentStage
				active[aa.ArcID] = true
			}
			for id := range stages {
				if !active[id] {
					delete(stages, id)
				}
			}
			if err := ns.Validate(); err != nil {
				t.Fatalf("seed %d week %d: %v", seed, ns.Week, err)
			}
			s = ns
		}
	}
}

func TestRest_FreshState(t *testing.T) {
	e := shippedEngine(t)
	s := newGame(t, e, 7)
	res, err := e.ResolveTurn(s, actions.Rest)
	if err != nil {
		t.Fatalf("rest: %v", err)
	}
	before, after := s.Player, res.State.Player
	if after.Health <= before.Health || after.Stability <= before.Stability || after.Hype >= before.Hype {
		t.Fatalf("before %+v after %+v", before, after)
	}
	if s.Week != 1 || len(s.WeekLogs) != 0 {
		t.Fatalf("input state was modified")
	}
	if res.State.Week != 2 || len(res.State.WeekLogs) != 1 || res.State.WeekLogs[0].Week != 1 {
		t.Fatalf("week=%d logs=%+v", res.State.Week, res.State.WeekLogs)
	}
}

func TestResolveTurn_Broke(t *testing.T) {
	e := shippedEngine(t)
	s := newGame(t, e, 3)
	s.Player.Money = -2000
	s.Player.IndustryGoodwill = 5
	res, err := e.ResolveTurn(s, actions.Rest)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	ns := res.State
	if !ns.IsGameOver || ns.GameOverReason != career.ReasonBroke {
		t.Fatalf("over=%v reason=%q", ns.IsGameOver, ns.GameOverReason)
	}
	if ns.Ending == nil || ns.Ending.Category == "" {
		t.Fatalf("no ending recorded")
	}
	if ns.PendingEvent != nil || ns.PendingTemptation != nil {
		t.Fatalf("pending triggers survive game over")
	}
	if _, err := e.ResolveTurn(ns, actions.Rest); !errors.Is(err, ErrGameOver) {
		t.Fatalf("turn after game over: %v", err)
	}
}

func TestResolveTurn_TimeLimit(t *testing.T) {
	e := quietEngine(t, nil)
	s := newGame(t, e, 3)
	s.Week = 519
	s.Year = career.YearForWeek(519)
	s.Player.Money = 100_000
	res, err := e.ResolveTurn(s, actions.Rest)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.State.GameOverReason != career.ReasonTimeLimit {
		t.Fatalf("reason=%q", res.State.GameOverReason)
	}
}

func TestTour_ThroughEngine(t *testing.T) {
	e := quietEngine(t, nil)
	s := newGame(t, e, 9)
	s.Player.Money = 5000
	s.Player.Fans = 3000
	s, _, err := e.StartTour(s, session.TourPlan{Size: "national"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := actions.Available(s); len(got) != 1 || got[0] != actions.TourWeek {
		t.Fatalf("available on tour: %v", got)
	}
	if _, err := e.ResolveTurn(s, actions.Rest); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("rest on tour: %v", err)
	}
	start := s.Player.Money
	var net int
	for week := 1; week <= 4; week++ {
		net = s.TourSession.Net()
		res, err := e.ResolveTurn(s, actions.TourWeek)
		if err != nil {
			t.Fatalf("tour week %d: %v", week, err)
		}
		if week == 4 {
			for _, g := range res.Shows {
				net += g.Net
			}
			net -= 1500
		}
		s = res.State
	}
	if s.TourSession != nil || s.Player.Flags.OnTour {
		t.Fatalf("tour still running")
	}
	if s.Player.Money != start+net {
		t.Fatalf("money=%d want %d", s.Player.Money, start+net)
	}
	if s.Stats.ToursCompleted != 1 || s.Week != 5 {
		t.Fatalf("stats=%+v week=%d", s.Stats, s.Week)
	}
}

func TestOneTimeEvent_NeverRepeats(t *testing.T) {
	ev := catalogs.Event{
		ID: "windfall", Title: "Windfall", OneTime: true,
		Choices: []catalogs.Choice{{ID: "take", Text: "Take it", Effects: career.StatDelta{Money: 100}}},
	}
	e := quietEngine(t, []catalogs.Event{ev})
	s := newGame(t, e, 11)
	s.Player.Money = 100_000
	fired := 0
	for i := 0; i < 60; i++ {
		if s.PendingEvent != nil {
			fired++
			ns, _, err := e.ApplyChoice(s, "", "take")
			if err != nil {
				t.Fatalf("choice: %v", err)
			}
			s = ns
			continue
		}
		if len(s.PendingNamings) > 0 {
			t.Fatalf("unexpected naming")
		}
		res, err := e.ResolveTurn(s, actions.Rest)
		if err != nil {
			t.Fatalf("turn: %v", err)
		}
		s = res.State
	}
	if fired != 1 {
		t.Fatalf("fired %d times", fired)
	}
	if len(s.TriggeredEventIDs) != 1 || s.TriggeredEventIDs[0] != "windfall" {
		t.Fatalf("triggered=%v", s.TriggeredEventIDs)
	}
}

func TestBlockedAndBadCalls(t *testing.T) {
	e := shippedEngine(t)
	s := newGame(t, e, 5)
	s.PendingEvent = &career.PendingEvent{EventID: "gear_stolen"}
	if res, err := e.ResolveTurn(s, actions.Rest); !errors.Is(err, ErrBlocked) || res.State != s {
		t.Fatalf("blocked turn: %v", err)
	}
	if _, _, err := e.ApplyChoice(s, "viral_clip", "x"); !errors.Is(err, ErrWrongTrigger) {
		t.Fatalf("wrong trigger: %v", err)
	}
	s.PendingEvent = nil
	if _, err := e.ResolveTurn(s, "MOONWALK"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("unknown action: %v", err)
	}
	if _, err := e.ResolveTurn(s, actions.ReleaseAlbum); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("release with no album: %v", err)
	}
	if _, _, err := e.ApplyChoice(s, "", "x"); !errors.Is(err, ErrNothingPending) {
		t.Fatalf("no pending: %v", err)
	}
	if _, err := e.NameSong(s, "song-9", "x"); !errors.Is(err, ErrNoNaming) {
		t.Fatalf("naming: %v", err)
	}
	if _, _, err := e.FireBandmate(s, "member-99"); !errors.Is(err, career.ErrUnknownBandmate) {
		t.Fatalf("fire: %v", err)
	}
	if _, _, err := e.Abandon(s); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("abandon: %v", err)
	}
}

func TestWrite_NamingFlow(t *testing.T) {
	e := quietEngine(t, nil)
	s := newGame(t, e, 13)
	s.Player.Money = 100_000
	for i := 0; i < 40 && len(s.Songs) == 0; i++ {
		res, err := e.ResolveTurn(s, actions.Write)
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		s = res.State
	}
	if len(s.Songs) == 0 {
		t.Fatalf("no song in 40 weeks of writing")
	}
	if len(s.PendingNamings) != 1 || s.PendingNamings[0].Kind != career.NamingSong {
		t.Fatalf("namings=%+v", s.PendingNamings)
	}
	id := s.Songs[0].ID
	if _, err := e.NameSong(s, id, strings.Repeat("x", 61)); !errors.Is(err, ErrBadTitle) {
		t.Fatalf("long title: %v", err)
	}
	ns, err := e.NameSong(s, id, "  Parking Lot Hymn ")
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if ns.Songs[0].Title != "Parking Lot Hymn" || len(ns.PendingNamings) != 0 {
		t.Fatalf("song=%+v namings=%v", ns.Songs[0], ns.PendingNamings)
	}
	if len(s.PendingNamings) != 1 {
		t.Fatalf("input state was modified")
	}
	res, err := e.ResolveTurn(ns, actions.ReleaseSingle)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if song := res.State.Songs[0]; !song.Released || song.ReleasedWeek != ns.Week {
		t.Fatalf("song=%+v", song)
	}
}

func TestBookGig_PlaysNextWeek(t *testing.T) {
	e := quietEngine(t, nil)
	s := newGame(t, e, 17)
	s.Player.Money = 100_000
	res, err := e.ResolveTurn(s, actions.BookGig)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	s = res.State
	if s.UpcomingGig == nil || s.UpcomingGig.Week != s.Week {
		t.Fatalf("gig=%+v week=%d", s.UpcomingGig, s.Week)
	}
	if _, _, err := e.StartTour(s, session.TourPlan{Size: "regional"}); !errors.Is(err, session.ErrGigBooked) {
		t.Fatalf("tour with gig booked: %v", err)
	}
	res, err = e.ResolveTurn(s, actions.Rest)
	if err != nil {
		t.Fatalf("rest: %v", err)
	}
	if res.Gig == nil || res.State.UpcomingGig != nil || res.State.Stats.GigsPlayed != 1 {
		t.Fatalf("gig not played: %+v", res.Gig)
	}
}

func TestExecute_MatchesDirectCalls(t *testing.T) {
	e := shippedEngine(t)
	s := newGame(t, e, 21)
	out, err := e.Execute(s, Command{Kind: CmdTurn, Action: actions.Practice})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	res, err := e.ResolveTurn(s, actions.Practice)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	a, _ := Digest(out.State)
	b, _ := Digest(res.State)
	if a != b || out.Text != res.Text {
		t.Fatalf("execute diverged from ResolveTurn")
	}
	if _, err := e.Execute(s, Command{Kind: CmdTour}); !errors.Is(err, ErrBadCommand) {
		t.Fatalf("tour without plan: %v", err)
	}
}

func TestNewGame_Seeded(t *testing.T) {
	e := shippedEngine(t)
	a, b := newGame(t, e, 99), newGame(t, e, 99)
	da, _ := Digest(a)
	db, _ := Digest(b)
	if da != db {
		t.Fatalf("same seed, different games")
	}
	if a.Player.Money != 800 || len(a.Bandmates) != 1 || a.Week != 1 {
		t.Fatalf("fresh game: %+v", a.Player)
	}
	if _, err := e.NewGame(NewGameOptions{Difficulty: "nightmare"}); !errors.Is(err, tuning.ErrUnknownDifficulty) {
		t.Fatalf("difficulty: %v", err)
	}
}

func offered(e *Engine, s *career.GameState, id actions.ID) bool {
	for _, a := range e.Available(s) {
		if a == id {
			return true
		}
	}
	return false
}

func TestBookGig_OfferedWhenShortOfRent(t *testing.T) {
	e := quietEngine(t, nil)
	s := newGame(t, e, 21)
	s.Player.Money = 50
	if !offered(e, s, actions.BookGig) {
		t.Fatalf("free venue should be bookable with $50")
	}
	res, err := e.ResolveTurn(s, actions.BookGig)
	if err != nil {
		t.Fatalf("book with $50: %v", err)
	}
	if res.State.UpcomingGig == nil || res.State.UpcomingGig.VenueID != "bar" {
		t.Fatalf("gig=%+v", res.State.UpcomingGig)
	}

	s.Player.Money = -10
	if offered(e, s, actions.BookGig) || e.IsAvailable(actions.BookGig, s) {
		t.Fatalf("nobody books an act in debt")
	}
	if _, err := e.ResolveTurn(s, actions.BookGig); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("book in debt: %v", err)
	}
}

func TestBookGig_BookingCostJudgedBeforeRent(t *testing.T) {
	venues := []catalogs.Venue{{ID: "club", Name: "Club", Capacity: 250, Guarantee: 200, BookingCost: 200}}
	cats, err := catalogs.New(nil, nil, nil, venues, catalogs.Names{})
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	e, err := New(tuning.Defaults(), cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	s := newGame(t, e, 5)

	s.Player.Money = 199
	if offered(e, s, actions.BookGig) {
		t.Fatalf("club offered with $199")
	}
	if _, err := e.ResolveTurn(s, actions.BookGig); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("book with $199: %v", err)
	}

	s.Player.Money = 250
	if !offered(e, s, actions.BookGig) {
		t.Fatalf("club not offered with $250")
	}
	res, err := e.ResolveTurn(s, actions.BookGig)
	if err != nil {
		t.Fatalf("book with $250: %v", err)
	}
	if res.State.UpcomingGig == nil {
		t.Fatalf("no gig booked")
	}
}

func TestResolveTurn_StaleArcStageDropped(t *testing.T) {
	e := shippedEngine(t)
	s := newGame(t, e, 13)
	s.ActiveArcs = []career.ActiveArc{{ArcID: "rivalry", CurrentStage: 5, StartedWeek: 1, StageStartedWeek: 1}}
	b, err := career.Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	loaded, err := career.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, err := e.ResolveTurn(loaded, actions.Rest)
	if err != nil {
		t.Fatalf("rest: %v", err)
	}
	if _, ok := res.State.ActiveArc("rivalry"); ok || res.State.ArcCompleted("rivalry") {
		t.Fatalf("stale arc kept: active=%+v completed=%v", res.State.ActiveArcs, res.State.CompletedArcIDs)
	}
}

// driftState is a band-less player so nothing but the action and the weekly
// drift touches health and stability.
func driftState(t *testing.T, e *Engine, addiction, burnout, algo int) *career.GameState {
	t.Helper()
	s := newGame(t, e, 31)
	s.Bandmates = nil
	s.Player.Health = 50
	s.Player.Stability = 50
	s.Player.Hype = 20
	s.Player.Addiction = addiction
	s.Player.Burnout = burnout
	s.Player.AlgoBoost = algo
	return s
}

func TestDrift_ExactWeeklyDeltas(t *testing.T) {
	e := quietEngine(t, nil)
	// REST gives health +8, stability +5 and burnout -10 before drift runs.
	cases := []struct {
		name                       string
		addiction, burnout, algo   int
		health, stability, algoOut int
	}{
		{"clean", 0, 0, 40, 58, 55, 37},
		{"at thresholds", 30, 80, 40, 58, 55, 37},
		{"just over", 31, 81, 40, 57, 53, 37},
		{"heavy", 55, 92, 40, 55, 50, 37},
		{"maxed", 100, 100, 2, 51, 45, 0},
	}
	for _, tc := range cases {
		s := driftState(t, e, tc.addiction, tc.burnout, tc.algo)
		res, err := e.ResolveTurn(s, actions.Rest)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		p := res.State.Player
		if p.Health != tc.health || p.Stability != tc.stability || p.AlgoBoost != tc.algoOut {
			t.Fatalf("%s: health=%d stability=%d algo=%d, want %d %d %d",
				tc.name, p.Health, p.Stability, p.AlgoBoost, tc.health, tc.stability, tc.algoOut)
		}
		if p.Hype != 18 {
			t.Fatalf("%s: hype=%d, want 18", tc.name, p.Hype)
		}
		if p.Burnout != max(tc.burnout-10, 0) || p.Addiction != tc.addiction {
			t.Fatalf("%s: burnout=%d addiction=%d", tc.name, p.Burnout, p.Addiction)
		}
	}
}

func TestDrift_ComparedToBaseline(t *testing.T) {
	e := quietEngine(t, nil)
	base, err := e.ResolveTurn(driftState(t, e, 0, 0, 60), actions.Practice)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	// addiction 64 drains ceil(34/10)=4; burnout 90+3 drains ceil(23/7)=4.
	hit, err := e.ResolveTurn(driftState(t, e, 64, 90, 60), actions.Practice)
	if err != nil {
		t.Fatalf("loaded: %v", err)
	}
	b, h := base.State.Player, hit.State.Player
	if b.Health-h.Health != 4 {
		t.Fatalf("health drain %d, want 4", b.Health-h.Health)
	}
	if b.Stability-h.Stability != 8 {
		t.Fatalf("stability drain %d, want 8", b.Stability-h.Stability)
	}
	if b.AlgoBoost != 57 || h.AlgoBoost != 57 {
		t.Fatalf("algo boost %d/%d, want 57", b.AlgoBoost, h.AlgoBoost)
	}
}
