package engine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/economy"
	"gigcraft.ai/internal/sim/ending"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/session"
	"gigcraft.ai/internal/sim/trigger"
	"gigcraft.ai/internal/sim/tuning"
)

type TurnResult struct {
	State           *career.GameState         `json:"-"`
	Week            int                       `json:"week"`
	Action          actions.ID                `json:"action"`
	Text            string                    `json:"text"`
	Event           *career.PendingEvent      `json:"event,omitempty"`
	EventTitle      string                    `json:"eventTitle,omitempty"`
	Temptation      *career.PendingTemptation `json:"temptation,omitempty"`
	TemptationTitle string                    `json:"temptationTitle,omitempty"`
	Gig             *economy.GigResult        `json:"gig,omitempty"`
	Shows           []economy.GigResult       `json:"shows,omitempty"`
	Streaming       economy.Split             `json:"streaming"`
	GameOver        bool                      `json:"gameOver"`
}

// ResolveTurn plays one week with the generator derived from the state.
func (e *Engine) ResolveTurn(s *career.GameState, id actions.ID) (TurnResult, error) {
	return e.ResolveTurnWith(s, id, rng.ForTurn(s.Seed, s.Week, rng.SaltTurn))
}

// ResolveTurnWith plays one week drawing from r. Passing independent
// generators to clones of one state previews alternative futures.
func (e *Engine) ResolveTurnWith(s *career.GameState, id actions.ID, r *rng.RNG) (TurnResult, error) {
	fail := func(err error) (TurnResult, error) { return TurnResult{State: s}, err }
	if s.IsGameOver {
		return fail(ErrGameOver)
	}
	if s.Blocked() {
		return fail(ErrBlocked)
	}
	act, ok := actions.Lookup(id)
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrUnknownAction, id))
	}
	if !e.IsAvailable(id, s) {
		return fail(fmt.Errorf("%w: %s", ErrUnavailable, id))
	}
	ru, d, err := e.rules(s)
	if err != nil {
		return fail(err)
	}

	ns := s.Clone()
	played := ns.Week
	res := TurnResult{Week: played, Action: id}
	var parts []string

	switch act.Kind {
	case actions.KindSession:
		var sr session.Result
		if id == actions.RecordWeek {
			sr, err = session.AdvanceRecording(ns, r, e.cats.Names)
		} else {
			sr, err = session.AdvanceTour(ns, r, d)
		}
		if err != nil {
			return fail(err)
		}
		res.Shows = sr.Shows
		parts = append(parts, sr.Text)
	default:
		budget := ns.Player.Money
		cost := economy.LivingCost(ns.Player, ns.ActiveBandmates(), e.tu, d)
		ns.Player.Money -= cost
		if act.Kind == actions.KindBasic {
			ns.Player = ns.Player.Apply(act.Effects)
		}
		text, err := e.procedure(ns, act, r, d, budget)
		if err != nil {
			return fail(err)
		}
		parts = append(parts, text)
	}

	e.drift(ns)
	parts = append(parts, e.settle(ns, r, d, &res)...)

	ns.Week++
	ns.Year = career.YearForWeek(ns.Week)
	trigger.DecrementCooldowns(ns)
	parts = append(parts, ru.UpdateArcs(ns)...)
	res.Event, res.EventTitle = ru.PickEvent(ns, string(id), r)
	ns.PendingEvent = res.Event
	res.Temptation, res.TemptationTitle = ru.RollTemptation(ns, r)
	ns.PendingTemptation = res.Temptation

	if reason := e.terminal(ns); reason != career.ReasonNone {
		e.finish(ns, reason)
		res.Event, res.EventTitle = nil, ""
		res.Temptation, res.TemptationTitle = nil, ""
		parts = append(parts, fmt.Sprintf("Game over: %s.", reason))
	}

	res.Text = joinParts(parts)
	ns.WeekLogs = append(ns.WeekLogs, career.WeekLog{Week: played, Action: string(id), Result: res.Text})
	ns.Stats.Observe(ns.Player)
	res.State = ns
	res.GameOver = ns.IsGameOver
	return res, nil
}

func joinParts(parts []string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// procedure runs the action-specific logic after base effects. budget is the
// money held before the week's living cost.
func (e *Engine) procedure(s *career.GameState, act actions.Action, r *rng.RNG, d tuning.Difficulty, budget int) (string, error) {
	switch act.ID {
	case actions.Rest:
		return "You took the week off.", nil
	case actions.Practice:
		return fmt.Sprintf("Practice paid off: skill %d.", s.Player.Skill), nil
	case actions.Write:
		return e.write(s, r), nil
	case actions.Promote:
		for i := range s.Songs {
			song := &s.Songs[i]
			if song.Released && !song.Viral {
				song.PlaylistScore = career.Clamp(song.PlaylistScore + 3)
			}
		}
		return "The push got some attention.", nil
	case actions.Party:
		return "Long night. Good connections, worse morning.", nil
	case actions.Network:
		return "You shook a lot of hands.", nil
	case actions.SideJob:
		return "A week of shifts pays the rent.", nil
	case actions.Recruit:
		return e.recruit(s, r), nil
	case actions.Rehab:
		return "Rehab. It was hard and it helped.", nil
	case actions.BookGig:
		return e.bookGig(s, budget)
	case actions.ReleaseSingle:
		return e.releaseSingle(s, r), nil
	case actions.ReleaseAlbum:
		return e.releaseAlbum(s, r, d), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAction, act.ID)
}

func (e *Engine) write(s *career.GameState, r *rng.RNG) string {
	if !r.Chance(economy.WriteChance(s.Player.Skill)) {
		return "Nothing finished this week."
	}
	q, h := economy.RollSong(r, s.Player)
	song := career.Song{
		ID:           s.NextSongID(),
		Title:        e.cats.Names.SongTitle(r),
		Quality:      q,
		HitPotential: h,
		WrittenWeek:  s.Week,
		StreamsTier:  career.TierNone,
	}
	s.Songs = append(s.Songs, song)
	s.PendingNamings = append(s.PendingNamings, career.SongNamingFor(song))
	return fmt.Sprintf("Finished a new song (quality %d).", q)
}

func (e *Engine) recruit(s *career.GameState, r *rng.RNG) string {
	role, ok := s.MissingRole()
	if !ok {
		return "Nobody needed."
	}
	b := career.GenerateBandmate(r, s.NextBandmateID(), role, s.Player.Fans, e.cats.Names.PersonName(r), s.Week)
	s.Bandmates = append(s.Bandmates, b)
	return fmt.Sprintf("%s joins on %s (talent %d).", b.Name, b.Role, b.Talent)
}

// venueFor picks the biggest room that will have an act with this many fans
// and this much money.
func (e *Engine) venueFor(fans, money int) (catalogs.Venue, bool) {
	best := -1
	for i, v := range e.cats.Venues.List {
		if v.MinFans > fans || v.BookingCost > money {
			continue
		}
		if best < 0 || v.Capacity > e.cats.Venues.List[best].Capacity {
			best = i
		}
	}
	if best < 0 {
		return catalogs.Venue{}, false
	}
	return e.cats.Venues.List[best], true
}

// bookGig plays next week. The room is chosen on the money the week started
// with, the same money availability was judged on.
func (e *Engine) bookGig(s *career.GameState, budget int) (string, error) {
	v, ok := e.venueFor(s.Player.Fans, budget)
	if !ok {
		return "", ErrNoVenue
	}
	s.Player.Money -= v.BookingCost
	s.UpcomingGig = &career.Gig{
		VenueID:    v.ID,
		VenueName:  v.Name,
		Capacity:   v.Capacity,
		Guarantee:  v.Guarantee,
		Week:       s.Week + 1,
		BookedWeek: s.Week,
	}
	return fmt.Sprintf("Booked %s for next week (capacity %s).", v.Name, humanize.Comma(int64(v.Capacity))), nil
}

func (e *Engine) releaseSingle(s *career.GameState, r *rng.RNG) string {
	loose := s.LooseSongs()
	song := loose[0]
	song.Released = true
	song.ReleasedWeek = s.Week
	song.PlaylistScore = economy.InitialPlaylist(r, *song, s.Player)
	song.StreamsTier = economy.TierForPlaylist(song.PlaylistScore)
	s.Player = s.Player.Apply(career.StatDelta{Hype: 3, Followers: 20 + song.HitPotential/2})
	return fmt.Sprintf("Released %q. Playlist score %d, %s rotation.", song.Title, song.PlaylistScore, song.StreamsTier)
}

func (e *Engine) releaseAlbum(s *career.GameState, r *rng.RNG, d tuning.Difficulty) string {
	album, _ := s.NextUnreleasedAlbum()
	deal, hasDeal := s.ActiveDeal()
	rec := economy.Reception(r, album.Quality, s.Player.Hype, s.Player.Cred)
	tier := economy.RollSalesTier(r, rec, s.Player.Fans, hasDeal)
	gross := economy.AlbumSales(r, tier, s.Player.Fans, d.IncomeMultiplier)

	var split economy.Split
	if hasDeal && album.LabelDealID == deal.ID {
		split = economy.RoyaltySplit(gross, deal)
		economy.Recoup(deal, split)
	} else {
		split = economy.RoyaltySplit(gross, nil)
	}

	album.Released = true
	album.ReleasedWeek = s.Week
	album.Reception = rec
	album.SalesTier = tier
	album.Revenue = split.Net
	for _, id := range album.SongIDs {
		song, ok := s.Song(id)
		if !ok || song.Released {
			continue
		}
		song.Released = true
		song.ReleasedWeek = s.Week
		song.PlaylistScore = career.Clamp(economy.InitialPlaylist(r, *song, s.Player) + rec/10)
		song.StreamsTier = economy.TierForPlaylist(song.PlaylistScore)
	}
	s.Player = s.Player.Apply(career.StatDelta{
		Money: split.Net,
		Fans:  gross / 20,
		Hype:  5 + rec/10,
		Cred:  (rec - 50) / 10,
	})
	if split.Net > 0 {
		s.Stats.TotalEarned += split.Net
	}
	return fmt.Sprintf("Released %q: reception %d, %s sales, $%s to you.",
		album.Title, rec, tier, humanize.Comma(int64(split.Net)))
}

// drift is the unconditional weekly decay.
func (e *Engine) drift(s *career.GameState) {
	th := e.tu.Thresholds
	p := s.Player
	d := career.StatDelta{Hype: -th.HypeDecay, AlgoBoost: -th.AlgoBoostDecay}
	if over := p.Addiction - th.AddictionDrain; over > 0 {
		drain := ceilDiv(over, 10)
		d.Health -= drain
		d.Stability -= drain
	}
	if over := p.Burnout - th.BurnoutDrain; over > 0 {
		d.Stability -= ceilDiv(over, 7)
	}
	s.Player = s.Player.Apply(d)
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// settle pays out the week: a booked gig, streaming, charts, the band and the
// label's patience.
func (e *Engine) settle(s *career.GameState, r *rng.RNG, d tuning.Difficulty, res *TurnResult) []string {
	var notes []string
	deal, _ := s.ActiveDeal()

	if g := s.UpcomingGig; g != nil && g.Week <= s.Week {
		gr := economy.PlayShow(r, g.Guarantee, g.Capacity, s.Player, deal, d.IncomeMultiplier)
		s.Player = s.Player.Apply(career.StatDelta{Money: gr.Net, Fans: gr.FansGained, Hype: gr.HypeGained})
		s.Stats.GigsPlayed++
		if gr.Net > 0 {
			s.Stats.TotalEarned += gr.Net
		}
		s.UpcomingGig = nil
		res.Gig = &gr
		notes = append(notes, fmt.Sprintf("Played %s to %s people: $%s, +%s fans.",
			g.VenueName, humanize.Comma(int64(gr.Attendance)), humanize.Comma(int64(gr.Net)), humanize.Comma(int64(gr.FansGained))))
	}

	th := e.tu.Thresholds
	streams := 0
	var boost career.StatDelta
	for i := range s.Songs {
		song := &s.Songs[i]
		if !song.Released {
			continue
		}
		n := economy.WeeklyStreams(r, *song, s.Player, th)
		song.WeeklyStreams = n
		song.TotalStreams += int64(n)
		streams += n
		if pos := economy.ChartPosition(n); pos > 0 {
			song.ChartHistory = append(song.ChartHistory, career.ChartEntry{Week: s.Week, Position: pos, Streams: n})
		}
		if !song.Viral && r.Chance(economy.ViralChance(*song, s.Player)) {
			boost = boost.Plus(economy.MakeViral(song, th))
			notes = append(notes, fmt.Sprintf("%q went viral!", song.Title))
			continue
		}
		if song.ReleasedWeek < s.Week {
			economy.DecaySong(song, th)
		}
	}
	if streams > 0 {
		split := economy.RoyaltySplit(economy.StreamingGross(streams, e.tu, d), deal)
		economy.Recoup(deal, split)
		boost.Money += split.Net
		if split.Net > 0 {
			s.Stats.TotalEarned += split.Net
		}
		res.Streaming = split
		if split.Gross > 0 {
			notes = append(notes, fmt.Sprintf("%s streams earned $%s.", humanize.Comma(int64(streams)), humanize.Comma(int64(split.Net))))
		}
	}
	s.Player = s.Player.Apply(boost)
	s.Player.CataloguePower = economy.CataloguePower(s.Songs)

	s.DriftLoyalty()
	notes = append(notes, s.RiskCheck(r)...)

	if deal != nil && deal.AlbumsDelivered == 0 && s.Week-deal.SignedWeek >= e.tu.DealDeliveryWeeks {
		deal.Status = career.DealDropped
		deal.EndedWeek = s.Week
		s.Player.Flags.HasLabelDeal = false
		notes = append(notes, fmt.Sprintf("%s dropped you.", deal.LabelName))
	}
	return notes
}

func (e *Engine) terminal(s *career.GameState) career.GameOverReason {
	p := s.Player
	th := e.tu.Thresholds
	switch {
	case p.Health <= 0:
		return career.ReasonDeath
	case s.Week >= e.tu.MaxWeeks:
		return career.ReasonTimeLimit
	case p.Money <= th.DeepDebt && p.IndustryGoodwill <= th.LowGoodwill:
		return career.ReasonBroke
	case s.Collapsed():
		return career.ReasonBandCollapsed
	}
	return career.ReasonNone
}

// finish freezes the run. Pending interrupts are dropped and the ending is
// stored on the state.
func (e *Engine) finish(s *career.GameState, reason career.GameOverReason) {
	s.IsGameOver = true
	s.GameOverReason = reason
	s.PendingEvent = nil
	s.PendingTemptation = nil
	s.PendingNamings = nil
	rec := ending.Determine(s)
	s.Ending = &rec
}
