// Package ending maps a finished run to one of a fixed set of outcomes. The
// result depends only on the final state.
package ending

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"gigcraft.ai/internal/sim/career"
)

type Category string

const (
	Legendary Category = "legendary"
	Survivor  Category = "survivor"
	CultHero  Category = "cult_hero"
	Burnout   Category = "burnout"
	Tragedy   Category = "tragedy"
	Obscurity Category = "obscurity"
	Sellout   Category = "sellout"
	Comeback  Category = "comeback"
)

// Categories is the tie-break order: on equal scores the earlier one wins.
var Categories = []Category{Legendary, Comeback, CultHero, Survivor, Sellout, Burnout, Tragedy, Obscurity}

var titles = map[Category]string{
	Legendary: "Legend",
	Survivor:  "Still Standing",
	CultHero:  "Cult Hero",
	Burnout:   "Flamed Out",
	Tragedy:   "Gone Too Soon",
	Obscurity: "Footnote",
	Sellout:   "Cashed In",
	Comeback:  "The Comeback",
}

func has360(s *career.GameState) bool {
	for _, d := range s.LabelDeals {
		if d.DealType == career.Deal360 {
			return true
		}
	}
	return false
}

// Scores computes every category's score. Death is handled by Determine,
// not here.
func Scores(s *career.GameState) map[Category]int {
	p := s.Player
	albums := s.ReleasedAlbums()
	singles := s.ReleasedSongs()
	reason := s.GameOverReason

	sc := map[Category]int{}
	sc[Legendary] = min(40, p.Fans/5000) + min(20, albums*5) + p.Hype/5 + p.CataloguePower/5
	if s.Stats.PeakFans >= 250_000 {
		sc[Legendary] += 15
	}

	sc[Survivor] = p.Health/5 + p.Stability/5
	if reason == career.ReasonTimeLimit {
		sc[Survivor] += 25
	}
	if p.Money > 0 {
		sc[Survivor] += 10
	}

	sc[CultHero] = p.Cred/2 + min(15, albums*4) + min(10, p.Fans/2000)
	if p.Fans > 100_000 {
		sc[CultHero] -= 20
	}

	sc[Burnout] = p.Burnout/2 + (100-p.Stability)/3
	if reason == career.ReasonBandCollapsed {
		sc[Burnout] += 25
	}
	if reason == career.ReasonBroke {
		sc[Burnout] += 10
	}

	sc[Tragedy] = p.Addiction/2 + (100-p.Health)/4
	if s.ArcCompleted("downward_spiral") {
		sc[Tragedy] += 15
	}

	sc[Obscurity] = 30 - min(30, p.Fans/1000) - min(20, singles*2)
	if reason == career.ReasonBroke {
		sc[Obscurity] += 20
	}

	sc[Sellout] = p.Image/3 + (100-p.Cred)/4
	if has360(s) {
		sc[Sellout] += 20
	}

	if s.Stats.LowestMoney <= -1000 || s.Stats.LowestHealth <= 20 {
		sc[Comeback] = 20 + min(25, p.Fans/4000)
		if p.Money > 0 {
			sc[Comeback] += 10
		}
		if p.Health >= 60 {
			sc[Comeback] += 10
		}
	}
	return sc
}

// Determine picks the winning category and its variation.
func Determine(s *career.GameState) career.EndingRecord {
	var cat Category
	var score int
	if s.GameOverReason == career.ReasonDeath {
		cat, score = Tragedy, 100
	} else {
		sc := Scores(s)
		cat = Categories[0]
		score = sc[cat]
		for _, c := range Categories[1:] {
			if sc[c] > score {
				cat, score = c, sc[c]
			}
		}
	}
	variation, text := variationFor(cat, s)
	return career.EndingRecord{
		Category:  string(cat),
		Variation: variation,
		Title:     titles[cat],
		Text:      text,
		Score:     score,
	}
}

func variationFor(cat Category, s *career.GameState) (string, string) {
	p := s.Player
	years := s.Week / 52
	fans := humanize.Comma(int64(p.Fans))
	switch cat {
	case Tragedy:
		switch {
		case s.GameOverReason == career.ReasonDeath && p.Addiction >= 70:
			return "overdose", "The habit won. The obituaries were kinder than the last year had been."
		case s.GameOverReason == career.ReasonDeath && p.Fans >= 50_000:
			return "died_famous", fmt.Sprintf("%s fans lit candles outside the venue. The records sell better now.", fans)
		case s.GameOverReason == career.ReasonDeath:
			return "died_unknown", "A handful of friends played your songs at the wake."
		}
		return "wreckage", "You made it out alive, which is more than the music did."
	case Legendary:
		if s.ReleasedAlbums() >= 3 {
			return "discography", fmt.Sprintf("%d albums and %s fans. They will be teaching your records.", s.ReleasedAlbums(), fans)
		}
		return "hitmaker", fmt.Sprintf("%s fans know every word.", fans)
	case Comeback:
		if s.Stats.LowestHealth <= 20 {
			return "back_from_the_brink", "You nearly died. Then you wrote the best songs of your life."
		}
		return "out_of_debt", fmt.Sprintf("Once $%s in the hole, you walked away in the black.", humanize.Comma(int64(-s.Stats.LowestMoney)))
	case CultHero:
		if p.Cred >= 80 {
			return "critics_darling", "Small crowds, perfect reviews. Every band you influenced got bigger than you."
		}
		return "basement_legend", "The people who know, know."
	case Survivor:
		if p.Money >= 10_000 {
			return "comfortable", fmt.Sprintf("%d years in and still paying rent with music.", max(1, years))
		}
		return "scraping_by", "Never rich, never finished. You are still playing on Friday."
	case Sellout:
		if has360(s) {
			return "owned", "The label owns the name, the merch and the tour. You own a nice car."
		}
		return "jingle_writer", "Your biggest hit is a phone commercial."
	case Burnout:
		switch s.GameOverReason {
		case career.ReasonBandCollapsed:
			return "band_split", "The band is gone and nobody is answering your texts."
		case career.ReasonBroke:
			return "broke", "The debt collectors got the van and the guitars."
		}
		return "exhausted", "You stopped picking up the guitar. It stopped calling."
	}
	if s.GameOverReason == career.ReasonBroke {
		return "day_job", "You went back to the day job. The demos are still on your phone."
	}
	return "forgotten", "It was a good run. Nobody remembers it."
}
