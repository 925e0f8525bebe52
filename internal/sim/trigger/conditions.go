package trigger

import (
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
)

// Metric reads a named quantity from s. Stage metrics need the arc the
// conditions belong to; without one they are unknown.
func Metric(s *career.GameState, name string, arc *career.ActiveArc) (int, bool) {
	if v, ok := s.Player.Get(career.Stat(name)); ok {
		return v, true
	}
	switch name {
	case "week":
		return s.Week, true
	case "bandVice":
		return s.BandViceMax(), true
	case "bandLoyalty":
		return s.BandLoyaltyMin(), true
	case "bandSize":
		return s.ActiveBandmates(), true
	case "releasedSongs":
		return s.ReleasedSongs(), true
	case "releasedAlbums":
		return s.ReleasedAlbums(), true
	case "looseSongs":
		return len(s.LooseSongs()), true
	case "stageWeeks":
		if arc == nil {
			return 0, false
		}
		return s.Week - arc.StageStartedWeek, true
	case "stageEvents":
		if arc == nil {
			return 0, false
		}
		return arc.StageEvents, true
	}
	return 0, false
}

func flag(s *career.GameState, name string) (bool, bool) {
	f := s.Player.Flags
	switch name {
	case "onTour":
		return f.OnTour, true
	case "inStudio":
		return f.InStudio, true
	case "hasLabelDeal":
		return f.HasLabelDeal, true
	case "hasManager":
		return f.HasManager, true
	}
	return false, false
}

// Holds reports whether every predicate in c is true for s. An unknown
// predicate never holds.
func Holds(c catalogs.Conditions, s *career.GameState, arc *career.ActiveArc) bool {
	for _, b := range c.SortedBounds() {
		v, ok := Metric(s, b.Metric, arc)
		if !ok {
			return false
		}
		if b.Min && v < b.Value {
			return false
		}
		if !b.Min && v > b.Value {
			return false
		}
	}
	for name, want := range c.Flags {
		got, ok := flag(s, name)
		if !ok || got != want {
			return false
		}
	}
	for _, id := range c.CompletedArcs {
		if !s.ArcCompleted(id) {
			return false
		}
	}
	for _, id := range c.TriggeredEvents {
		if !s.EventTriggered(id) {
			return false
		}
	}
	return true
}

// EventEligible applies the filters shared by standalone and arc events:
// consumed one-time events, action gating and conditions.
func EventEligible(ev *catalogs.Event, s *career.GameState, action string) bool {
	if ev.OneTime && s.EventTriggered(ev.ID) {
		return false
	}
	if ev.RequiredAction != "" && ev.RequiredAction != action {
		return false
	}
	return Holds(ev.Conditions, s, nil)
}
