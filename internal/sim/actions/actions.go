// Package actions is the fixed menu of weekly actions: what each one requires
// and what it does to the player before any procedure runs.
package actions

import (
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/trigger"
)

type ID string

const (
	Rest          ID = "REST"
	Practice      ID = "PRACTICE"
	Write         ID = "WRITE"
	Promote       ID = "PROMOTE"
	Party         ID = "PARTY"
	Network       ID = "NETWORK"
	SideJob       ID = "SIDE_JOB"
	Recruit       ID = "RECRUIT"
	Rehab         ID = "REHAB"
	BookGig       ID = "BOOK_GIG"
	ReleaseSingle ID = "RELEASE_SINGLE"
	ReleaseAlbum  ID = "RELEASE_ALBUM"
	RecordWeek    ID = "RECORD_WEEK"
	TourWeek      ID = "TOUR_WEEK"
)

type Kind int

const (
	KindBasic Kind = iota
	KindRelease
	KindSession
)

type Action struct {
	ID          ID
	Label       string
	Description string
	Kind        Kind
	Effects     career.StatDelta
	Requires    catalogs.Conditions
}

var catalog = []Action{
	{ID: Rest, Label: "Rest", Description: "Take the week off.",
		Effects: career.StatDelta{Health: 8, Stability: 5, Burnout: -10}},
	{ID: Practice, Label: "Practice", Description: "Woodshed your chops.",
		Effects: career.StatDelta{Skill: 3, Burnout: 3, Health: -1}},
	{ID: Write, Label: "Write", Description: "Try to finish a song.",
		Effects: career.StatDelta{Burnout: 2, Stability: -1}},
	{ID: Promote, Label: "Promote", Description: "Push your music online.",
		Effects:  career.StatDelta{Money: -100, Hype: 8, Followers: 50, AlgoBoost: 6, Burnout: 2},
		Requires: catalogs.Min("money", 100)},
	{ID: Party, Label: "Party", Description: "Be seen.",
		Effects: career.StatDelta{Money: -60, Hype: 5, Addiction: 4, Health: -4, IndustryGoodwill: 2, Stability: -2, Burnout: -5}},
	{ID: Network, Label: "Network", Description: "Shake hands with the industry.",
		Effects: career.StatDelta{Money: -50, IndustryGoodwill: 5, Cred: -1, Burnout: 1}},
	{ID: SideJob, Label: "Side job", Description: "Pay the rent.",
		Effects: career.StatDelta{Money: 400, Burnout: 4, Cred: -2}},
	{ID: Recruit, Label: "Recruit", Description: "Hold auditions for an open spot.",
		Effects:  career.StatDelta{Money: -200},
		Requires: catalogs.Min("money", 200)},
	{ID: Rehab, Label: "Rehab", Description: "Get clean.",
		Effects:  career.StatDelta{Money: -1500, Addiction: -25, Health: 10, Hype: -5, Stability: 5},
		Requires: catalogs.Min("addiction", 20).WithMin("money", 1500)},
	{ID: BookGig, Label: "Book a gig", Description: "Play next week."},
	{ID: ReleaseSingle, Label: "Release single", Description: "Put out a finished song.", Kind: KindRelease},
	{ID: ReleaseAlbum, Label: "Release album", Description: "Put out a recorded album.", Kind: KindRelease},
	{ID: RecordWeek, Label: "Record", Description: "Another week in the studio.", Kind: KindSession},
	{ID: TourWeek, Label: "Tour", Description: "Another week on the road.", Kind: KindSession},
}

// All returns the catalogue in menu order.
func All() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id ID) (Action, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// IsAvailable reports whether id may be taken this week. While a session runs
// its continuation is the only choice.
func IsAvailable(id ID, s *career.GameState) bool {
	a, ok := Lookup(id)
	if !ok || s.IsGameOver {
		return false
	}
	switch {
	case s.RecordingSession != nil:
		return id == RecordWeek
	case s.TourSession != nil:
		return id == TourWeek
	}
	if !trigger.Holds(a.Requires, s, nil) {
		return false
	}
	switch id {
	case RecordWeek, TourWeek:
		return false
	case Recruit:
		_, missing := s.MissingRole()
		return missing
	case BookGig:
		return s.UpcomingGig == nil
	case ReleaseSingle:
		return len(s.LooseSongs()) > 0
	case ReleaseAlbum:
		_, ok := s.NextUnreleasedAlbum()
		return ok
	}
	return true
}

func Available(s *career.GameState) []ID {
	var out []ID
	for _, a := range catalog {
		if IsAvailable(a.ID, s) {
			out = append(out, a.ID)
		}
	}
	return out
}
