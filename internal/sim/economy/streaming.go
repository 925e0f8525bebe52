package economy

import (
	"math"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/tuning"
)

type tierRange struct{ lo, hi int }

var tierRanges = map[career.StreamsTier]tierRange{
	career.TierNone:    {0, 50},
	career.TierLow:     {100, 1_000},
	career.TierMedium:  {1_000, 10_000},
	career.TierHigh:    {10_000, 100_000},
	career.TierMassive: {100_000, 1_000_000},
}

// TierRange is the weekly stream band for a tier.
func TierRange(t career.StreamsTier) (lo, hi int) {
	r := tierRanges[t]
	return r.lo, r.hi
}

// TierForPlaylist is where a song settles on its own. Massive is reachable
// only by going viral.
func TierForPlaylist(score int) career.StreamsTier {
	switch {
	case score < 10:
		return career.TierNone
	case score < 30:
		return career.TierLow
	case score < 55:
		return career.TierMedium
	default:
		return career.TierHigh
	}
}

// WeeklyStreams draws a week of streams for a released song.
func WeeklyStreams(r *rng.RNG, song career.Song, p career.Player, th tuning.Thresholds) int {
	lo, hi := TierRange(song.StreamsTier)
	base := float64(r.NextInt(lo, hi))
	v := base * (0.5 + float64(song.PlaylistScore)/100) * (1 + float64(p.AlgoBoost)/100)
	if song.Viral {
		v *= float64(th.ViralMultiplier)
	}
	return int(math.Round(v))
}

// StreamingGross converts streams to money before any label split.
func StreamingGross(streams int, tu tuning.Tuning, d tuning.Difficulty) int {
	return int(math.Round(float64(streams) / 1000 * tu.StreamRatePer1000 * d.IncomeMultiplier))
}

// ViralChance is the weekly probability a released song blows up.
func ViralChance(song career.Song, p career.Player) float64 {
	c := 0.004 +
		float64(song.HitPotential)/100*0.01 +
		float64(p.AlgoBoost)/100*0.02 +
		math.Min(float64(p.Followers), 100_000)/100_000*0.01
	return math.Min(c, 0.05)
}

// viralPlaylistBump is added to the playlist score when a song goes viral.
// Any score below the 100 cap strictly rises; a song already at 100 stays.
const viralPlaylistBump = 15

// MakeViral forces a song to massive for a fixed run and returns the boost the
// player gets from it.
func MakeViral(song *career.Song, th tuning.Thresholds) career.StatDelta {
	song.Viral = true
	song.StreamsTier = career.TierMassive
	song.ViralWeeksRemaining = th.ViralWeeks
	song.PlaylistScore = career.Clamp(song.PlaylistScore + viralPlaylistBump)
	return career.StatDelta{AlgoBoost: 20, Hype: 10, Followers: 1000 + song.HitPotential*20}
}

// DecaySong ages a released song one week: viral runs count down and playlist
// support fades.
func DecaySong(song *career.Song, th tuning.Thresholds) {
	if song.Viral {
		song.ViralWeeksRemaining--
		if song.ViralWeeksRemaining <= 0 {
			song.Viral = false
			song.ViralWeeksRemaining = 0
			song.StreamsTier = TierForPlaylist(song.PlaylistScore)
		}
		return
	}
	song.PlaylistScore = max(song.PlaylistScore-th.PlaylistDecay, 0)
	song.StreamsTier = TierForPlaylist(song.PlaylistScore)
}

// ChartPosition maps weekly streams to a top-100 slot; 0 means not charting.
func ChartPosition(weeklyStreams int) int {
	if weeklyStreams < 5_000 {
		return 0
	}
	pos := 101 - int(math.Log10(float64(weeklyStreams))*15)
	return min(max(pos, 1), 100)
}

// CataloguePower summarises how much the back catalogue keeps earning.
func CataloguePower(songs []career.Song) int {
	var total int64
	released := 0
	for _, s := range songs {
		if s.Released {
			total += s.TotalStreams
			released++
		}
	}
	if released == 0 {
		return 0
	}
	return career.Clamp(int(math.Log10(1+float64(total))*10) + released)
}
