package session

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/economy"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/tuning"
)

var (
	studioWeek = career.StatDelta{Skill: 1, Burnout: 2, Stability: -1}
	roadWeek   = career.StatDelta{Burnout: 4, Health: -2, Hype: 3, Stability: -1}
)

// AdvanceRecording spends one week in the studio.
func AdvanceRecording(s *career.GameState, r *rng.RNG, names catalogs.Names) (Result, error) {
	rs := s.RecordingSession
	if rs == nil {
		return Result{}, fmt.Errorf("%w: recording", ErrNoSession)
	}
	rs.WeeksRemaining--
	rs.AccumulatedCost += rs.CostPerWeek
	rs.Progress = (rs.WeeksRequired - rs.WeeksRemaining) * 100 / rs.WeeksRequired
	s.Player = s.Player.Apply(studioWeek)

	written := 0
	if rs.Kind == career.RecordingWriteAndRecord {
		n := r.NextInt(1, 2)
		for i := 0; i < n && len(rs.SongIDs) < MaxAlbumSongs; i++ {
			q, h := economy.RollSong(r, s.Player)
			song := career.Song{
				ID:           s.NextSongID(),
				Title:        names.SongTitle(r),
				Quality:      q,
				HitPotential: h,
				WrittenWeek:  s.Week,
				StreamsTier:  career.TierNone,
			}
			s.Songs = append(s.Songs, song)
			rs.SongIDs = append(rs.SongIDs, song.ID)
			written++
		}
	}

	if rs.WeeksRemaining > 0 {
		text := fmt.Sprintf("Studio week at %s: %d%% done.", rs.Studio, rs.Progress)
		if written > 0 {
			text += fmt.Sprintf(" Wrote %d new song(s).", written)
		}
		return Result{Text: text}, nil
	}
	return finishRecording(s), nil
}

func finishRecording(s *career.GameState) Result {
	rs := s.RecordingSession
	songs := make([]career.Song, 0, len(rs.SongIDs))
	for _, id := range rs.SongIDs {
		if song, ok := s.Song(id); ok {
			songs = append(songs, *song)
		}
	}
	album := career.Album{
		ID:              s.NextAlbumID(),
		Title:           rs.AlbumTitle,
		SongIDs:         append([]string(nil), rs.SongIDs...),
		Quality:         economy.AlbumQuality(songs, rs.ProductionValue),
		ProductionValue: rs.ProductionValue,
		RecordedWeek:    s.Week,
	}
	if deal, ok := s.ActiveDeal(); ok {
		album.LabelDealID = deal.ID
		deal.AlbumsDelivered++
	}
	for _, id := range album.SongIDs {
		if song, ok := s.Song(id); ok {
			song.AlbumID = album.ID
		}
	}
	s.Albums = append(s.Albums, album)
	s.Player.Money -= rs.AccumulatedCost
	s.PendingNamings = append(s.PendingNamings, career.AlbumNamingFor(album))
	s.RecordingSession = nil
	s.Player.Flags.InStudio = false
	return Result{
		Text: fmt.Sprintf("Finished recording %q: %d songs, quality %d. Studio bill $%s.",
			album.Title, len(album.SongIDs), album.Quality, humanize.Comma(int64(rs.AccumulatedCost))),
		Completed: true,
		AlbumID:   album.ID,
	}
}

// AdvanceTour plays one week of shows. Money and fans settle when the tour
// ends.
func AdvanceTour(s *career.GameState, r *rng.RNG, d tuning.Difficulty) (Result, error) {
	ts := s.TourSession
	if ts == nil {
		return Result{}, fmt.Errorf("%w: tour", ErrNoSession)
	}
	deal, _ := s.ActiveDeal()
	var res Result
	for i := 0; i < ts.ShowsPerWeek; i++ {
		g := economy.PlayShow(r, ts.Guarantee, ts.Capacity, s.Player, deal, d.IncomeMultiplier)
		ts.GrossRevenue += g.Guarantee + g.Tickets
		ts.MerchRevenue += g.Merch
		ts.LabelCut += g.LabelCut
		ts.FansGained += g.FansGained
		ts.ShowsPlayed++
		res.Shows = append(res.Shows, g)
	}
	ts.Costs += ts.CostPerWeek
	ts.WeeksRemaining--
	s.Player = s.Player.Apply(roadWeek)

	if ts.WeeksRemaining > 0 {
		res.Text = fmt.Sprintf("%s: %d shows this week, %d played so far.", ts.Name, ts.ShowsPerWeek, ts.ShowsPlayed)
		return res, nil
	}
	net := settleTour(s)
	s.Stats.ToursCompleted++
	res.Completed = true
	res.Text = fmt.Sprintf("%s wrapped after %d shows. Net $%s, +%s fans.",
		ts.Name, ts.ShowsPlayed, humanize.Comma(int64(net)), humanize.Comma(int64(ts.FansGained)))
	return res, nil
}

func settleTour(s *career.GameState) int {
	ts := s.TourSession
	net := ts.Net()
	s.Player = s.Player.Apply(career.StatDelta{Money: net, Fans: ts.FansGained})
	s.Stats.GigsPlayed += ts.ShowsPlayed
	if net > 0 {
		s.Stats.TotalEarned += net
	}
	s.TourSession = nil
	s.Player.Flags.OnTour = false
	return net
}

// Abandon ends the running session early without using a week. Studio time
// already spent is billed and any songs written stay unreleased; a tour pays
// out what it earned so far and burns some goodwill.
func Abandon(s *career.GameState) (string, error) {
	switch {
	case s.RecordingSession != nil:
		rs := s.RecordingSession
		s.Player.Money -= rs.AccumulatedCost
		s.RecordingSession = nil
		s.Player.Flags.InStudio = false
		return fmt.Sprintf("Walked out of the studio. Bill $%s, %d song(s) kept.",
			humanize.Comma(int64(rs.AccumulatedCost)), len(rs.SongIDs)), nil
	case s.TourSession != nil:
		ts := s.TourSession
		net := settleTour(s)
		s.Player = s.Player.Apply(career.StatDelta{IndustryGoodwill: -8, Hype: -5})
		return fmt.Sprintf("Cancelled %s after %d shows. Net $%s.",
			ts.Name, ts.ShowsPlayed, humanize.Comma(int64(net))), nil
	}
	return "", ErrNoSession
}
