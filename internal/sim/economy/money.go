// Package economy holds the pure money and audience formulas. Functions take
// the state slices they need plus an explicit generator and never touch
// anything else.
package economy

import (
	"math"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/tuning"
)

const (
	localFanCap    = 500
	ticketPrice    = 8
	merchPerHead   = 3
	fansPerHundred = 6
	gigHypeGain    = 2
)

// LivingCost is the weekly burn: rent and food scaled by difficulty and habit,
// plus upkeep for every active member.
func LivingCost(p career.Player, activeBandmates int, tu tuning.Tuning, d tuning.Difficulty) int {
	base := float64(tu.BaseLivingCost) * d.CostMultiplier * (1 + float64(p.Addiction)/200)
	return int(math.Round(base)) + tu.BandmateUpkeep*activeBandmates
}

// HypeFactor maps hype 0..100 onto 0.5..1.5.
func HypeFactor(hype int) float64 {
	return 0.5 + float64(hype)/100
}

// FanFactor dampens fan count logarithmically so big acts don't scale linearly.
func FanFactor(fans int) float64 {
	return 1 + math.Log10(1+float64(max(fans, 0)))/2
}

type GigResult struct {
	Attendance int `json:"attendance"`
	Guarantee  int `json:"guarantee"`
	Tickets    int `json:"tickets"`
	Merch      int `json:"merch"`
	Gross      int `json:"gross"`
	LabelCut   int `json:"labelCut"`
	Net        int `json:"net"`
	FansGained int `json:"fansGained"`
	HypeGained int `json:"hypeGained"`
}

// PlayShow settles one show. Local draw is capped so a huge fan base does not
// fill a dive bar on its own; the rest of the room is luck and hype.
func PlayShow(r *rng.RNG, guarantee, capacity int, p career.Player, deal *career.LabelDeal, incomeMult float64) GigResult {
	hype := HypeFactor(p.Hype)
	local := math.Min(float64(p.Fans)*0.05, localFanCap)
	walkIns := float64(r.NextInt(0, capacity/4))
	attendance := min(capacity, int(math.Round((local+walkIns)*hype)))

	g := GigResult{Attendance: attendance}
	g.Guarantee = int(math.Round(float64(guarantee) * FanFactor(p.Fans) * hype * incomeMult))
	g.Tickets = int(math.Round(float64(attendance*ticketPrice) * incomeMult))
	g.Merch = int(math.Round(float64(attendance*merchPerHead) * incomeMult))
	g.Gross = g.Guarantee + g.Tickets + g.Merch
	g.LabelCut = TouringCut(deal, g.Guarantee+g.Tickets) + MerchCut(deal, g.Merch)
	g.Net = g.Gross - g.LabelCut
	g.FansGained = attendance*fansPerHundred/100 + r.NextInt(0, max(1, attendance/20))
	g.HypeGained = gigHypeGain
	return g
}

// TouringCut is the label's share of live revenue; only 360 deals take one.
func TouringCut(deal *career.LabelDeal, revenue int) int {
	if deal == nil || deal.Status != career.DealActive || revenue <= 0 {
		return 0
	}
	return int(math.Round(float64(revenue) * deal.TouringCutRate))
}

func MerchCut(deal *career.LabelDeal, revenue int) int {
	if deal == nil || deal.Status != career.DealActive || revenue <= 0 {
		return 0
	}
	return int(math.Round(float64(revenue) * deal.MerchCutRate))
}

// Split is one period's streaming money after the label and recoupment.
type Split struct {
	Gross       int `json:"gross"`
	LabelCut    int `json:"labelCut"`
	ArtistShare int `json:"artistShare"`
	RecoupPaid  int `json:"recoupPaid"`
	Net         int `json:"net"`
}

// RoyaltySplit divides gross by the deal's artist rate and pays down the
// advance from the artist share. RecoupPaid never exceeds ArtistShare, so Net
// is never negative. Without an active deal the artist keeps everything.
func RoyaltySplit(gross int, deal *career.LabelDeal) Split {
	if gross <= 0 {
		return Split{}
	}
	if deal == nil || deal.Status != career.DealActive {
		return Split{Gross: gross, ArtistShare: gross, Net: gross}
	}
	share := int(math.Floor(float64(gross) * deal.StreamingRoyaltyRate))
	share = min(max(share, 0), gross)
	recoup := min(share, max(deal.RecoupDebt, 0))
	return Split{
		Gross:       gross,
		LabelCut:    gross - share,
		ArtistShare: share,
		RecoupPaid:  recoup,
		Net:         share - recoup,
	}
}

// Recoup applies a split's recoupment to the deal. Debt only goes down.
func Recoup(deal *career.LabelDeal, sp Split) {
	if deal == nil || sp.RecoupPaid <= 0 {
		return
	}
	deal.RecoupDebt = max(deal.RecoupDebt-sp.RecoupPaid, 0)
}
