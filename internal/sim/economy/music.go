package economy

import (
	"math"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/rng"
)

// WriteChance is the probability a WRITE week produces a finished song.
func WriteChance(skill int) float64 {
	return math.Min(0.35+float64(skill)/100*0.55, 0.9)
}

// RollSong fixes a new song's quality and hit potential.
func RollSong(r *rng.RNG, p career.Player) (quality, hitPotential int) {
	quality = career.Clamp(int(math.Round(float64(p.Skill)*0.45+float64(p.Talent)*0.35)) + r.NextInt(0, 20))
	hitPotential = career.Clamp(int(math.Round(float64(p.Talent)*0.3+float64(p.Skill)*0.2+float64(p.Hype)*0.1)) + r.NextInt(0, 40))
	return quality, hitPotential
}

// AlbumQuality averages song quality and adds the studio's production value.
func AlbumQuality(songs []career.Song, productionValue int) int {
	if len(songs) == 0 {
		return career.Clamp(productionValue)
	}
	sum := 0
	for _, s := range songs {
		sum += s.Quality
	}
	return career.Clamp(int(math.Round(float64(sum)/float64(len(songs)))) + productionValue)
}

// Reception is the critics' verdict on release.
func Reception(r *rng.RNG, quality, hype, cred int) int {
	v := float64(quality)*0.6 + float64(hype)*0.2 + float64(cred)*0.2
	return career.Clamp(int(math.Round(v)) + r.NextInt(-10, 10))
}

// RollSalesTier looks up a tier from reception, nudged by fan base and label
// muscle.
func RollSalesTier(r *rng.RNG, reception, fans int, hasDeal bool) career.SalesTier {
	score := float64(reception) + math.Log10(1+float64(fans))*5 + float64(r.NextInt(-15, 15))
	if hasDeal {
		score += 10
	}
	switch {
	case score < 35:
		return career.SalesFlop
	case score < 55:
		return career.SalesModest
	case score < 75:
		return career.SalesSolid
	case score < 95:
		return career.SalesHit
	default:
		return career.SalesSmash
	}
}

var salesPerFan = map[career.SalesTier]float64{
	career.SalesFlop:   0.02,
	career.SalesModest: 0.05,
	career.SalesSolid:  0.1,
	career.SalesHit:    0.2,
	career.SalesSmash:  0.35,
}

// AlbumSales is the release-week gross from physical and download sales.
func AlbumSales(r *rng.RNG, tier career.SalesTier, fans int, incomeMult float64) int {
	units := float64(fans)*salesPerFan[tier] + float64(r.NextInt(0, 50))
	return int(math.Round(units * 9 * incomeMult))
}

// InitialPlaylist is the playlist score a song enters with on release.
func InitialPlaylist(r *rng.RNG, song career.Song, p career.Player) int {
	v := float64(song.Quality)*0.4 + float64(song.HitPotential)*0.3 + float64(p.Hype)*0.2
	return career.Clamp(int(math.Round(v)) + r.NextInt(0, 10))
}
